package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

const (
	DefaultSize      = 20
	ListAllSize      = 50
	DefaultK         = 5
	MLTMinTermFreq   = 1
	MLTMaxQueryTerms = 12
)

var ErrInvalidQuery = errors.New("invalid query")

type Kind string

const (
	KindKeywordMatch Kind = "keyword_match"
	KindMoreLikeThis Kind = "more_like_this"
	KindListAll      Kind = "list_all"
	KindSemantic     Kind = "semantic"
)

// Query 是查询的 tagged union,每个变体确定性地对应一个 JSON 请求体
type Query interface {
	Kind() Kind
	Body(dialect schema.Dialect) (any, error)
	isQuery()
}

// Request 是 _search 的请求体
type Request struct {
	Query     *types.Query     `json:"query,omitempty"`
	Knn       *types.KnnSearch `json:"knn,omitempty"`
	Size      *int             `json:"size,omitempty"`
	Highlight *Highlight       `json:"highlight,omitempty"`
}

type Highlight struct {
	Fields map[string]HighlightField `json:"fields"`
}

type HighlightField struct{}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

func checkSize(size int) error {
	if size < 0 {
		return invalid("size must not be negative, got %d", size)
	}
	return nil
}

// KeywordMatch: title 权重为 content 的两倍,content 返回高亮片段
type KeywordMatch struct {
	Text      string
	Fields    []string
	Size      int
	Highlight []string
}

func NewKeywordMatch(text string, size int) KeywordMatch {
	return KeywordMatch{
		Text:      text,
		Fields:    []string{schema.FieldTitle + "^2", schema.FieldContent},
		Size:      size,
		Highlight: []string{schema.FieldContent},
	}
}

func (KeywordMatch) Kind() Kind { return KindKeywordMatch }
func (KeywordMatch) isQuery()   {}

func (q KeywordMatch) Body(schema.Dialect) (any, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, invalid("keyword must not be empty")
	}
	if len(q.Fields) == 0 {
		return nil, invalid("keyword match needs at least one field")
	}
	if err := checkSize(q.Size); err != nil {
		return nil, err
	}
	req := &Request{
		Query: &types.Query{
			MultiMatch: &types.MultiMatchQuery{
				Query:  q.Text,
				Fields: q.Fields,
			},
		},
		Size: &q.Size,
	}
	if len(q.Highlight) > 0 {
		req.Highlight = &Highlight{Fields: make(map[string]HighlightField, len(q.Highlight))}
		for _, f := range q.Highlight {
			req.Highlight.Fields[f] = HighlightField{}
		}
	}
	return req, nil
}

// MoreLikeThis 以一篇已入库的文档为种子查找相似文档
type MoreLikeThis struct {
	Index         string
	DocumentID    string
	Fields        []string
	MinTermFreq   int
	MaxQueryTerms int
	Size          int
}

func NewMoreLikeThis(index, documentID string, size int) MoreLikeThis {
	return MoreLikeThis{
		Index:         index,
		DocumentID:    documentID,
		Fields:        []string{schema.FieldTitle, schema.FieldContent},
		MinTermFreq:   MLTMinTermFreq,
		MaxQueryTerms: MLTMaxQueryTerms,
		Size:          size,
	}
}

func (MoreLikeThis) Kind() Kind { return KindMoreLikeThis }
func (MoreLikeThis) isQuery()   {}

func (q MoreLikeThis) Body(schema.Dialect) (any, error) {
	if err := schema.ValidateIndexName(q.Index); err != nil {
		return nil, invalid("%v", err)
	}
	if q.DocumentID == "" {
		return nil, invalid("reference document id must not be empty")
	}
	if q.MaxQueryTerms <= 0 || q.MinTermFreq <= 0 {
		return nil, invalid("min_term_freq and max_query_terms must be positive")
	}
	if err := checkSize(q.Size); err != nil {
		return nil, err
	}
	index, id := q.Index, q.DocumentID
	minTermFreq, maxQueryTerms := q.MinTermFreq, q.MaxQueryTerms
	return &Request{
		Query: &types.Query{
			MoreLikeThis: &types.MoreLikeThisQuery{
				Fields:        q.Fields,
				Like:          []types.Like{types.LikeDocument{Index_: &index, Id_: &id}},
				MinTermFreq:   &minTermFreq,
				MaxQueryTerms: &maxQueryTerms,
			},
		},
		Size: &q.Size,
	}, nil
}

// ListAll 固定条数的 match_all,用于查看/调试
type ListAll struct {
	Size int
}

func NewListAll() ListAll { return ListAll{Size: ListAllSize} }

func (ListAll) Kind() Kind { return KindListAll }
func (ListAll) isQuery()   {}

func (q ListAll) Body(schema.Dialect) (any, error) {
	if err := checkSize(q.Size); err != nil {
		return nil, err
	}
	return &Request{
		Query: &types.Query{MatchAll: &types.MatchAllQuery{}},
		Size:  &q.Size,
	}, nil
}

// Semantic 是 content_embedding 上的 kNN 查询. Elasticsearch 用顶层 knn,
// OpenSearch 用 k-NN 插件的 knn query
type Semantic struct {
	Field         string
	Vector        []float32
	K             int
	NumCandidates int
}

func NewSemantic(vector []float32, k int) Semantic {
	return Semantic{
		Field:         schema.FieldEmbedding,
		Vector:        vector,
		K:             k,
		NumCandidates: max(k*20, 100),
	}
}

func (Semantic) Kind() Kind { return KindSemantic }
func (Semantic) isQuery()   {}

func (q Semantic) Body(dialect schema.Dialect) (any, error) {
	if len(q.Vector) == 0 {
		return nil, invalid("query vector must not be empty")
	}
	if q.K <= 0 {
		return nil, invalid("k must be positive, got %d", q.K)
	}
	switch dialect {
	case schema.DialectElasticsearch:
		k, numCandidates := q.K, max(q.NumCandidates, q.K)
		return &Request{
			Knn: &types.KnnSearch{
				Field:         q.Field,
				QueryVector:   q.Vector,
				K:             &k,
				NumCandidates: &numCandidates,
			},
			Size: &k,
		}, nil
	case schema.DialectOpenSearch:
		return map[string]any{
			"size": q.K,
			"query": map[string]any{
				"knn": map[string]any{
					q.Field: map[string]any{"vector": q.Vector, "k": q.K},
				},
			},
		}, nil
	default:
		return nil, invalid("unknown dialect %q", dialect)
	}
}
