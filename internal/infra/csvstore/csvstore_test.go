package csvstore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LouYuanbo1/wikisearch/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticlesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "articles.csv")
	articles := []entity.Article{
		{Title: "告白 (映画)", Content: "『告白』は、2010年の日本映画。\n\n== あらすじ ==\n\"引用\", カンマ"},
		{Title: "B", Content: ""},
	}
	require.NoError(t, WriteArticles(path, articles))

	got, err := ReadArticles(path)
	require.NoError(t, err)
	assert.Equal(t, articles, got)
}

func TestTitlesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	titles := []entity.MovieTitle{{Title: "A"}, {Title: "B"}}
	require.NoError(t, WriteTitles(path, titles))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "title\nA\nB\n", string(data))

	got, err := ReadTitles(path)
	require.NoError(t, err)
	assert.Equal(t, titles, got)
}

func TestWrite_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write[entity.Article](&buf, nil))
	assert.Equal(t, "title,content\n", buf.String())

	rows, err := Read[entity.Article](&buf)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRead_ExtraColumnsAndOrder(t *testing.T) {
	rows, err := Read[entity.Article](strings.NewReader("content,id,title\nbody,1,A\n"))
	require.NoError(t, err)
	assert.Equal(t, []entity.Article{{Title: "A", Content: "body"}}, rows)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read[entity.Article](strings.NewReader(""))
	assert.ErrorContains(t, err, "missing header")

	_, err = Read[entity.Article](strings.NewReader("title,content\n\"unterminated\n"))
	assert.Error(t, err)

	_, err = ReadArticles(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
