package crawler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/LouYuanbo1/wikisearch/internal/domain/entity"
	"github.com/LouYuanbo1/wikisearch/internal/infra/csvstore"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	years    []int
	titles   map[int][]entity.MovieTitle
	missing  map[string]bool
	requests []string
}

func (f *fakeSource) MovieTitles(_ context.Context, year int) ([]entity.MovieTitle, error) {
	f.years = append(f.years, year)
	if year < 0 {
		return nil, errors.New("bad year")
	}
	return f.titles[year], nil
}

func (f *fakeSource) Article(_ context.Context, title string) (entity.Article, error) {
	f.requests = append(f.requests, title)
	if f.missing[title] {
		return entity.Article{}, errors.New("article not found")
	}
	return entity.Article{Title: title, Content: title + "の本文"}, nil
}

func TestCollectTitles(t *testing.T) {
	src := &fakeSource{titles: map[int][]entity.MovieTitle{
		2010: {{Title: "A"}, {Title: "B"}},
		2012: {{Title: "C"}},
	}}
	path := filepath.Join(t.TempDir(), "movies.csv")
	svc := InitService(src, Options{YearDelay: time.Millisecond, TitlesFile: path})

	titles, err := svc.CollectTitles(context.Background(), 2010, 2012)
	require.NoError(t, err)
	assert.Equal(t, []int{2010, 2011, 2012}, src.years)
	assert.Equal(t, []entity.MovieTitle{{Title: "A"}, {Title: "B"}, {Title: "C"}}, titles)

	saved, err := csvstore.ReadTitles(path)
	require.NoError(t, err)
	assert.Equal(t, titles, saved)
}

func TestCollectTitles_Errors(t *testing.T) {
	svc := InitService(&fakeSource{}, Options{})
	_, err := svc.CollectTitles(context.Background(), 2012, 2010)
	assert.Error(t, err)

	_, err = svc.CollectTitles(context.Background(), -1, 0)
	assert.ErrorContains(t, err, "bad year")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc = InitService(&fakeSource{}, Options{YearDelay: time.Hour})
	_, err = svc.CollectTitles(ctx, 2010, 2011)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectArticles_SkipsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	src := &fakeSource{missing: map[string]bool{"B": true}}
	path := filepath.Join(t.TempDir(), "articles.csv")
	svc := InitService(src, Options{ArticlesFile: path})

	articles, err := svc.CollectArticles(ctx, []entity.MovieTitle{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, src.requests)
	assert.Equal(t, []entity.Article{
		{Title: "A", Content: "Aの本文"},
		{Title: "C", Content: "Cの本文"},
	}, articles)

	skipped := logs.FilterMessage("skip article").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "B", skipped[0].ContextMap()["title"])
	done := logs.FilterMessage("articles collected").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 1, done[0].ContextMap()["skipped"])

	saved, err := csvstore.ReadArticles(path)
	require.NoError(t, err)
	assert.Equal(t, articles, saved)
}

func TestCollectArticles_ProgressEvery100(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	titles := make([]entity.MovieTitle, 250)
	for i := range titles {
		titles[i] = entity.MovieTitle{Title: "T"}
	}
	_, err := InitService(&fakeSource{}, Options{}).CollectArticles(ctx, titles)
	require.NoError(t, err)
	assert.Len(t, logs.FilterMessage("collecting articles").All(), 3)
}

func TestCollectArticles_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{}
	_, err := InitService(src, Options{}).CollectArticles(ctx, []entity.MovieTitle{{Title: "A"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.requests)
}
