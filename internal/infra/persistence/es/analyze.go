package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
)

type analyzeRequest struct {
	Analyzer string `json:"analyzer"`
	Text     string `json:"text"`
}

type analyzeResponse struct {
	Tokens []model.Token `json:"tokens"`
}

// Analyze 用指定 analyzer 对文本分词,不读写索引内容
func (c *searchClient) Analyze(ctx context.Context, index, text, analyzer string) ([]model.Token, error) {
	if err := schema.ValidateIndexName(index); err != nil {
		return nil, err
	}
	if analyzer == "" {
		return nil, errors.New("analyzer name must not be empty")
	}
	res, err := c.sendJSON(ctx, http.MethodPost, indexPath(index, "_analyze"), analyzeRequest{Analyzer: analyzer, Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text with %s: %w", analyzer, err)
	}
	var parsed analyzeResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode analyze response: %w", err)
	}
	return parsed.Tokens, nil
}
