package es

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrIndexAlreadyExists    = errors.New("index already exists")
	ErrIndexNotFound         = errors.New("index not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrMalformedQuery        = errors.New("malformed query")
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
)

// TransportError 表示请求没有拿到响应(连接失败、超时、ctx 取消等)
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to send %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EngineError 是引擎返回的非 2xx 响应,Body 保留原始错误内容用于排查
type EngineError struct {
	StatusCode int
	Type       string
	Reason     string
	Body       []byte
}

func (e *EngineError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("engine returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("engine returned %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// Is 让 errors.Is(err, ErrIndexNotFound) 等按引擎错误类型匹配
func (e *EngineError) Is(target error) bool {
	kind := e.kind()
	return kind != nil && kind == target
}

func (e *EngineError) kind() error {
	switch e.Type {
	case "resource_already_exists_exception":
		return ErrIndexAlreadyExists
	case "index_not_found_exception":
		return ErrIndexNotFound
	case "document_missing_exception":
		return ErrDocumentNotFound
	case "parsing_exception",
		"x_content_parse_exception",
		"illegal_argument_exception",
		"query_shard_exception",
		"search_phase_execution_exception":
		return ErrMalformedQuery
	}
	// GET /{index}/_doc/{id} 未命中时只返回 {"found":false},没有 error 对象
	if e.StatusCode == http.StatusNotFound && e.Type == "" && documentMissing(e.Body) {
		return ErrDocumentNotFound
	}
	return nil
}

// documentMissing 只认 {"found":false},代理或网关返回的 404 页面不算
func documentMissing(body []byte) bool {
	var doc struct {
		Found *bool `json:"found"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	return doc.Found != nil && !*doc.Found
}

type engineErrorBody struct {
	Error json.RawMessage `json:"error"`
}

type engineErrorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func newEngineError(status int, body []byte) *EngineError {
	e := &EngineError{StatusCode: status, Body: body}
	var parsed engineErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Error) == 0 {
		return e
	}
	var cause engineErrorCause
	if err := json.Unmarshal(parsed.Error, &cause); err == nil {
		e.Type, e.Reason = cause.Type, cause.Reason
		return e
	}
	// 少数情况下 error 是一个字符串
	var reason string
	if err := json.Unmarshal(parsed.Error, &reason); err == nil {
		e.Reason = reason
	}
	return e
}
