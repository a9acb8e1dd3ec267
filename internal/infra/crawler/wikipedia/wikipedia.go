package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/LouYuanbo1/wikisearch/internal/domain/entity"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"go.uber.org/zap"
)

// 分类成员接口每页最多返回的条数
const categoryMembersLimit = 500

var ErrArticleNotFound = errors.New("article not found")

// 只取分类的第一层: 子分类、模板、一览页、电影节页都跳过
var skipKeywords = []string{
	"Category:",
	"Template:",
	"映画一覧",
	"映画の一覧",
	"国際映画祭",
}

// Fetcher 取回一个 URL 的响应体,由 collector.CollyCrawler 实现
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client 通过 MediaWiki Action API 读取分类成员和文章纯文本
type Client struct {
	fetcher  Fetcher
	endpoint string
	logger   *zap.Logger
}

// Endpoint 返回指定语言版本的 api.php 地址
func Endpoint(language string) string {
	return "https://" + language + ".wikipedia.org/w/api.php"
}

func NewClient(fetcher Fetcher, endpoint string, l *zap.Logger) *Client {
	return &Client{fetcher: fetcher, endpoint: endpoint, logger: logger.OrNop(l)}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type categoryMembersResponse struct {
	Error    *apiError `json:"error"`
	Continue struct {
		CMContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query struct {
		CategoryMembers []struct {
			PageID int    `json:"pageid"`
			NS     int    `json:"ns"`
			Title  string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

type extractsResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Missing bool   `json:"missing"`
			Invalid bool   `json:"invalid"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	body, err := c.fetcher.Fetch(ctx, c.endpoint+"?"+params.Encode())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode api response: %w", err)
	}
	return nil
}

// CategoryMembers 返回分类下的全部成员标题(包括子分类和模板),按 cmcontinue 翻页
func (c *Client) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	var titles []string
	cont := ""
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("list", "categorymembers")
		params.Set("cmtitle", category)
		params.Set("cmlimit", strconv.Itoa(categoryMembersLimit))
		if cont != "" {
			params.Set("cmcontinue", cont)
		}
		var resp categoryMembersResponse
		if err := c.get(ctx, params, &resp); err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", category, err)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("failed to list members of %s: %s: %s", category, resp.Error.Code, resp.Error.Info)
		}
		for _, m := range resp.Query.CategoryMembers {
			titles = append(titles, m.Title)
		}
		c.logger.Debug("category page fetched",
			zap.String("category", category),
			zap.Int("page", page),
			zap.Int("members", len(resp.Query.CategoryMembers)))
		if resp.Continue.CMContinue == "" {
			return titles, nil
		}
		cont = resp.Continue.CMContinue
	}
}

// MovieCategory 返回某年电影分类的页面名
func MovieCategory(year int) string {
	return fmt.Sprintf("Category:%d年の映画", year)
}

// Skip 判断分类成员是否不是电影条目
func Skip(year int, title string) bool {
	for _, k := range skipKeywords {
		if strings.Contains(title, k) {
			return true
		}
	}
	return title == fmt.Sprintf("%d年の日本公開映画", year) || title == fmt.Sprintf("%d年の映画", year)
}

// MovieTitles 返回某年电影分类下过滤后的条目标题,保持接口返回的顺序
func (c *Client) MovieTitles(ctx context.Context, year int) ([]entity.MovieTitle, error) {
	members, err := c.CategoryMembers(ctx, MovieCategory(year))
	if err != nil {
		return nil, err
	}
	titles := make([]entity.MovieTitle, 0, len(members))
	for _, m := range members {
		if Skip(year, m) {
			c.logger.Debug("skip category member", zap.Int("year", year), zap.String("title", m))
			continue
		}
		titles = append(titles, entity.MovieTitle{Title: m})
	}
	c.logger.Info("movie titles collected",
		zap.Int("year", year),
		zap.Int("members", len(members)),
		zap.Int("titles", len(titles)))
	return titles, nil
}

// Article 返回条目的纯文本正文
func (c *Client) Article(ctx context.Context, title string) (entity.Article, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("titles", title)
	var resp extractsResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return entity.Article{}, fmt.Errorf("failed to get article %s: %w", title, err)
	}
	if resp.Error != nil {
		return entity.Article{}, fmt.Errorf("failed to get article %s: %s: %s", title, resp.Error.Code, resp.Error.Info)
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing || resp.Query.Pages[0].Invalid {
		return entity.Article{}, fmt.Errorf("%w: %s", ErrArticleNotFound, title)
	}
	return entity.Article{Title: title, Content: resp.Query.Pages[0].Extract}, nil
}
