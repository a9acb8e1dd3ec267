package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 包装所有配置错误(缺少地址/凭证、未知驱动等)
var ErrInvalidConfig = errors.New("invalid config")

// ParseConfig 解析 JSON 配置,补全默认值并校验
func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(expandEnvVars(byteConfig), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(&cfg)
}

// LoadConfig 按扩展名读取 JSON 或 YAML 配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var cfg Config
		if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		return finish(&cfg)
	default:
		return ParseConfig(data)
	}
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults 为未填写的字段补默认值
func (c *Config) ApplyDefaults() {
	if c.Search.Driver == "" {
		c.Search.Driver = DriverOpenSearch
	}
	if c.Search.Service == "" {
		c.Search.Service = "es"
	}
	if c.Search.Index == "" {
		c.Search.Index = "wikipedia"
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = 30
	}
	if c.Colly.UserAgent == "" {
		c.Colly.UserAgent = "wikisearch/1.0 (https://github.com/LouYuanbo1/wikisearch)"
	}
	if c.Colly.Parallelism <= 0 {
		c.Colly.Parallelism = 1
	}
	if c.Wikipedia.Language == "" {
		c.Wikipedia.Language = "ja"
	}
	if c.Wikipedia.FromYear == 0 {
		c.Wikipedia.FromYear = 2010
	}
	if c.Wikipedia.ToYear == 0 {
		c.Wikipedia.ToYear = 2022
	}
	if c.Wikipedia.TitlesFile == "" {
		c.Wikipedia.TitlesFile = "data/movies.csv"
	}
	if c.Wikipedia.ArticlesFile == "" {
		c.Wikipedia.ArticlesFile = "data/articles.csv"
	}
	if c.Embedder.BatchSize <= 0 {
		c.Embedder.BatchSize = 16
	}
	if c.Loader.Workers <= 0 {
		c.Loader.Workers = 1
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
}

// Validate 一次性返回所有问题,每个错误都包装 ErrInvalidConfig
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	switch c.Search.Driver {
	case DriverOpenSearch, DriverElasticsearch:
	default:
		invalid("search.driver must be %q or %q, got %q", DriverOpenSearch, DriverElasticsearch, c.Search.Driver)
	}
	if c.Search.Address == "" {
		invalid("search.address is required")
	} else if !strings.HasPrefix(c.Search.Address, "http://") && !strings.HasPrefix(c.Search.Address, "https://") {
		invalid("search.address must start with http:// or https://, got %q", c.Search.Address)
	}
	if c.Search.Sign {
		if c.Search.Driver != DriverOpenSearch {
			invalid("search.sign is only supported by the %q driver", DriverOpenSearch)
		}
		if c.Search.Region == "" {
			invalid("search.region is required when search.sign is enabled")
		}
	}
	if err := schema.ValidateIndexName(c.Search.Index); err != nil {
		invalid("search.index: %v", err)
	}
	if c.Wikipedia.FromYear > c.Wikipedia.ToYear {
		invalid("wikipedia.from_year (%d) is after wikipedia.to_year (%d)", c.Wikipedia.FromYear, c.Wikipedia.ToYear)
	}
	if c.Embedder.Enabled {
		if c.Embedder.Model == "" {
			invalid("embedder.model is required when the embedder is enabled")
		}
		if c.Embedder.Dims <= 0 {
			invalid("embedder.dims must be positive when the embedder is enabled")
		}
	}
	return errors.Join(errs...)
}

// envRef 匹配 ${VAR} 和 ${VAR:-默认值}
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnvVars 在解析前替换配置中的环境变量引用. 变量未设置或为空时使用默认值
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		if v := os.Getenv(string(m[1])); v != "" || len(m[2]) == 0 {
			return []byte(v)
		}
		return m[2][len(":-"):]
	})
}
