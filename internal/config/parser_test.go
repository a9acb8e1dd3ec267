package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"search":{"address":"http://localhost:9200"}}`))
	require.NoError(t, err)

	assert.Equal(t, DriverOpenSearch, cfg.Search.Driver)
	assert.Equal(t, "wikipedia", cfg.Search.Index)
	assert.Equal(t, "es", cfg.Search.Service)
	assert.Equal(t, 30, cfg.Search.TimeoutSeconds)
	assert.Equal(t, "ja", cfg.Wikipedia.Language)
	assert.Equal(t, 2010, cfg.Wikipedia.FromYear)
	assert.Equal(t, 2022, cfg.Wikipedia.ToYear)
	assert.Equal(t, "data/movies.csv", cfg.Wikipedia.TitlesFile)
	assert.Equal(t, 1, cfg.Loader.Workers)
	assert.Equal(t, "local", cfg.Logging.Env)
	assert.False(t, cfg.Embedder.Enabled)
}

func TestParseConfig_EnvExpansion(t *testing.T) {
	t.Setenv("WIKISEARCH_TEST_ADDR", "https://search.example.com")
	cfg, err := ParseConfig([]byte(`{
		"search": {
			"address": "${WIKISEARCH_TEST_ADDR}",
			"index": "${WIKISEARCH_TEST_UNSET:-movies}"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "https://search.example.com", cfg.Search.Address)
	assert.Equal(t, "movies", cfg.Search.Index)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("WIKISEARCH_TEST_SET", "v")
	t.Setenv("WIKISEARCH_TEST_EMPTY", "")
	tests := map[string]string{
		"${WIKISEARCH_TEST_SET:-d}":   "v",
		"${WIKISEARCH_TEST_EMPTY:-d}": "d",
		"${WIKISEARCH_TEST_UNSET}":    "",
		"${WIKISEARCH_TEST_UNSET:-}":  "",
		"a-${WIKISEARCH_TEST_SET}-b":  "a-v-b",
		"$WIKISEARCH_TEST_SET":        "$WIKISEARCH_TEST_SET",
	}
	for in, want := range tests {
		assert.Equal(t, want, string(expandEnvVars([]byte(in))), in)
	}
}

func TestParseConfig_InvalidJSON(t *testing.T) {
	_, err := ParseConfig([]byte(`{"search":`))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"missing address", `{}`},
		{"address without scheme", `{"search":{"address":"localhost:9200"}}`},
		{"unknown driver", `{"search":{"address":"http://x","driver":"solr"}}`},
		{"sign with elasticsearch", `{"search":{"address":"http://x","driver":"elasticsearch","sign":true,"region":"ap-northeast-1"}}`},
		{"sign without region", `{"search":{"address":"https://x","sign":true}}`},
		{"bad index name", `{"search":{"address":"http://x","index":"Wiki"}}`},
		{"year range", `{"search":{"address":"http://x"},"wikipedia":{"from_year":2020,"to_year":2010}}`},
		{"embedder without model", `{"search":{"address":"http://x"},"embedder":{"enabled":true,"dims":768}}`},
		{"embedder without dims", `{"search":{"address":"http://x"},"embedder":{"enabled":true,"model":"nomic-embed-text"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.json))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	_, err := ParseConfig([]byte(`{"search":{"driver":"solr","index":"A"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.driver")
	assert.Contains(t, err.Error(), "search.address")
	assert.Contains(t, err.Error(), "search.index")
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  driver: elasticsearch
  address: http://localhost:9200
  index: movies
wikipedia:
  from_year: 2015
  to_year: 2016
loader:
  workers: 4
logging:
  env: prod
  level: warn
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverElasticsearch, cfg.Search.Driver)
	assert.Equal(t, "movies", cfg.Search.Index)
	assert.Equal(t, 2015, cfg.Wikipedia.FromYear)
	assert.Equal(t, 4, cfg.Loader.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"search":{"address":"http://localhost:9200","sign":true,"region":"ap-northeast-1"}}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Search.Sign)
	assert.Equal(t, "ap-northeast-1", cfg.Search.Region)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
