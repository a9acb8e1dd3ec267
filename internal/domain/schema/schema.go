package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	CharFilterName = "normalize"
	TokenizerName  = "ja_kuromoji_tokenizer"
	IndexAnalyzer  = "ja_kuromoji_index_analyzer"
	SearchAnalyzer = "ja_kuromoji_search_analyzer"

	FieldTitle     = "title"
	FieldContent   = "content"
	FieldEmbedding = "content_embedding"
)

// Dialect 区分 OpenSearch 与 Elasticsearch 在向量字段/knn 查询上的差异,
// 其余请求体两者完全一致
type Dialect string

const (
	DialectOpenSearch    Dialect = "opensearch"
	DialectElasticsearch Dialect = "elasticsearch"
)

// kuromoji 的 filter 链,index 与 search 两个 analyzer 必须一致,否则查询时切出来的 token 对不上
var japaneseFilters = []string{
	"kuromoji_baseform",
	"kuromoji_part_of_speech",
	"cjk_width",
	"ja_stop",
	"kuromoji_stemmer",
	"lowercase",
}

type CharFilter struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Mode string `json:"mode"`
}

type Tokenizer struct {
	Type                 string   `json:"type"`
	Mode                 string   `json:"mode"`
	DiscardCompoundToken bool     `json:"discard_compound_token"`
	UserDictionaryRules  []string `json:"user_dictionary_rules"`
}

type Analyzer struct {
	Type       string   `json:"type"`
	CharFilter []string `json:"char_filter"`
	Tokenizer  string   `json:"tokenizer"`
	Filter     []string `json:"filter"`
}

func (a Analyzer) clone() Analyzer {
	a.CharFilter = slices.Clone(a.CharFilter)
	a.Filter = slices.Clone(a.Filter)
	return a
}

type Analysis struct {
	CharFilter map[string]CharFilter `json:"char_filter"`
	Tokenizer  map[string]Tokenizer  `json:"tokenizer"`
	Analyzer   map[string]Analyzer   `json:"analyzer"`
}

type FieldMapping struct {
	Type           string `json:"type"`
	Analyzer       string `json:"analyzer,omitempty"`
	SearchAnalyzer string `json:"search_analyzer,omitempty"`
}

// IndexDefinition 描述一次建索引请求: analysis 设置 + 字段映射.
// 创建后不可变,需要变更时先删除再重建
type IndexDefinition struct {
	Name     string
	Analysis Analysis
	Mappings map[string]FieldMapping
	// >0 时追加 content_embedding 向量字段
	VectorDims int
}

// JapaneseArticleIndex 返回固定的日文文章索引定义:
// ICU NFKC 正规化 + kuromoji search 模式分词 + 相同的 index/search filter 链
func JapaneseArticleIndex(name string, vectorDims int) IndexDefinition {
	analyzer := Analyzer{
		Type:       "custom",
		CharFilter: []string{CharFilterName},
		Tokenizer:  TokenizerName,
		Filter:     slices.Clone(japaneseFilters),
	}
	return IndexDefinition{
		Name: name,
		Analysis: Analysis{
			CharFilter: map[string]CharFilter{
				CharFilterName: {Type: "icu_normalizer", Name: "nfkc", Mode: "compose"},
			},
			Tokenizer: map[string]Tokenizer{
				TokenizerName: {
					Type:                 "kuromoji_tokenizer",
					Mode:                 "search",
					DiscardCompoundToken: true,
					UserDictionaryRules:  []string{},
				},
			},
			Analyzer: map[string]Analyzer{
				IndexAnalyzer:  analyzer,
				SearchAnalyzer: analyzer.clone(),
			},
		},
		Mappings: map[string]FieldMapping{
			FieldTitle: {Type: "text"},
			FieldContent: {
				Type:           "text",
				Analyzer:       IndexAnalyzer,
				SearchAnalyzer: SearchAnalyzer,
			},
		},
		VectorDims: vectorDims,
	}
}

// Validate 检查索引名以及 mapping 引用的 analyzer 是否都已定义
func (d IndexDefinition) Validate() error {
	if err := ValidateIndexName(d.Name); err != nil {
		return err
	}
	if d.VectorDims < 0 {
		return fmt.Errorf("vector dims must not be negative, got %d", d.VectorDims)
	}
	for field, m := range d.Mappings {
		for _, a := range []string{m.Analyzer, m.SearchAnalyzer} {
			if a == "" {
				continue
			}
			if _, ok := d.Analysis.Analyzer[a]; !ok {
				return fmt.Errorf("field %q references undefined analyzer %q", field, a)
			}
		}
	}
	return nil
}

// Symmetric 报告 index analyzer 与 search analyzer 的配置是否完全一致
func (d IndexDefinition) Symmetric() bool {
	ia, ok1 := d.Analysis.Analyzer[IndexAnalyzer]
	sa, ok2 := d.Analysis.Analyzer[SearchAnalyzer]
	if !ok1 || !ok2 {
		return false
	}
	return ia.Type == sa.Type &&
		ia.Tokenizer == sa.Tokenizer &&
		slices.Equal(ia.CharFilter, sa.CharFilter) &&
		slices.Equal(ia.Filter, sa.Filter)
}

// Body 生成 PUT /{index} 的请求体
func (d IndexDefinition) Body(dialect Dialect) (map[string]any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	settings := map[string]any{"analysis": d.Analysis}
	properties := make(map[string]any, len(d.Mappings)+1)
	for field, m := range d.Mappings {
		properties[field] = m
	}
	if d.VectorDims > 0 {
		switch dialect {
		case DialectElasticsearch:
			properties[FieldEmbedding] = map[string]any{
				"type":       "dense_vector",
				"dims":       d.VectorDims,
				"index":      true,
				"similarity": "cosine",
			}
		case DialectOpenSearch:
			settings["index"] = map[string]any{"knn": true}
			properties[FieldEmbedding] = map[string]any{
				"type":      "knn_vector",
				"dimension": d.VectorDims,
			}
		default:
			return nil, fmt.Errorf("unknown dialect %q", dialect)
		}
	}
	return map[string]any{
		"settings": settings,
		"mappings": map[string]any{"properties": properties},
	}, nil
}

// ValidateIndexName 按引擎的命名规则检查索引名
func ValidateIndexName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("index name (%q) can't be empty, . or ..", name)
	}
	if name != strings.ToLower(name) {
		return fmt.Errorf("index name (%q) must be lowercase", name)
	}
	const illegalSymbols = `\/*?"<>| ,#:`
	if strings.ContainsAny(name, illegalSymbols) {
		return fmt.Errorf("index name (%q) can't contain symbols: %v", name, illegalSymbols)
	}
	if strings.ContainsAny(name[:1], "-_+") {
		return errors.New("index name can't start with -, _ or +")
	}
	return nil
}
