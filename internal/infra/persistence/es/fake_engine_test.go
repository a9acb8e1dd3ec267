package es

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeEngine 是内存中的搜索引擎,按真实 REST 路径响应,用于测试客户端的行为
type fakeEngine struct {
	mu       sync.Mutex
	requests []recordedRequest
	indices  map[string]map[string]json.RawMessage
	autoID   int

	// 第 n 次(从 1 开始) _bulk 请求返回网络错误
	failBulkAt int
	bulkCalls  int
	// 包含该 ID 的 _bulk 请求返回网络错误
	failBulkWithID string
	// 这些 ID 在 _bulk 中逐条失败
	rejectIDs map[string]bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{indices: map[string]map[string]json.RawMessage{}}
}

func (f *fakeEngine) requestsTo(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		p, _, _ := strings.Cut(r.Path, "?")
		if r.Method == method && p == path {
			out = append(out, r)
		}
	}
	return out
}

func jsonResponse(v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: http.StatusOK, Body: data}, nil
}

func engineError(status int, typ, reason string) error {
	body := fmt.Sprintf(`{"error":{"root_cause":[{"type":%q,"reason":%q}],"type":%q,"reason":%q},"status":%d}`,
		typ, reason, typ, reason, status)
	return newEngineError(status, []byte(body))
}

func (f *fakeEngine) Send(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	var data []byte
	if body != nil {
		var err error
		if data, err = io.ReadAll(body); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{Method: method, Path: path, Body: data})

	p, _, _ := strings.Cut(path, "?")
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")

	if parts[0] == "_bulk" {
		return f.bulk(method, path, data)
	}
	index := parts[0]
	docs, exists := f.indices[index]

	switch {
	case len(parts) == 1 && method == http.MethodPut:
		if exists {
			return nil, engineError(400, "resource_already_exists_exception", "index ["+index+"] already exists")
		}
		f.indices[index] = map[string]json.RawMessage{}
		return jsonResponse(map[string]any{"acknowledged": true, "index": index})
	case len(parts) == 1 && method == http.MethodHead:
		if !exists {
			return nil, newEngineError(http.StatusNotFound, nil)
		}
		return &Response{StatusCode: http.StatusOK}, nil
	case !exists:
		return nil, engineError(404, "index_not_found_exception", "no such index ["+index+"]")
	case len(parts) == 1 && method == http.MethodDelete:
		delete(f.indices, index)
		return jsonResponse(map[string]any{"acknowledged": true})
	case len(parts) == 1:
		return nil, engineError(400, "illegal_argument_exception", "unsupported "+method+" "+path)
	case parts[1] == "_doc" && method == http.MethodGet && len(parts) == 3:
		if _, ok := docs[parts[2]]; !ok {
			body, _ := json.Marshal(map[string]any{"_index": index, "_id": parts[2], "found": false})
			return nil, newEngineError(http.StatusNotFound, body)
		}
		return jsonResponse(map[string]any{"_index": index, "_id": parts[2], "found": true})
	case parts[1] == "_doc":
		id := ""
		if len(parts) == 3 {
			id = parts[2]
		} else {
			f.autoID++
			id = "auto-" + strconv.Itoa(f.autoID)
		}
		docs[id] = data
		return jsonResponse(map[string]any{"_index": index, "_id": id, "result": "created"})
	case parts[1] == "_search":
		return f.search(docs, data)
	case parts[1] == "_stats":
		return jsonResponse(map[string]any{
			"_all": map[string]any{"primaries": map[string]any{
				"docs":  map[string]any{"count": len(docs)},
				"store": map[string]any{"size_in_bytes": 100 * len(docs)},
			}},
		})
	case parts[1] == "_analyze":
		var req analyzeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, engineError(400, "parsing_exception", err.Error())
		}
		tokens := []model.Token{}
		offset := 0
		for i, w := range strings.Fields(req.Text) {
			start := strings.Index(req.Text[offset:], w) + offset
			tokens = append(tokens, model.Token{Token: strings.ToLower(w), StartOffset: start, EndOffset: start + len(w), Type: "word", Position: i})
			offset = start + len(w)
		}
		return jsonResponse(analyzeResponse{Tokens: tokens})
	}
	return nil, engineError(400, "illegal_argument_exception", "unsupported "+method+" "+path)
}

func (f *fakeEngine) bulk(method, path string, data []byte) (*Response, error) {
	f.bulkCalls++
	if f.bulkCalls == f.failBulkAt ||
		(f.failBulkWithID != "" && bytes.Contains(data, []byte(`"_id":"`+f.failBulkWithID+`"`))) {
		return nil, &TransportError{Method: method, Path: path, Err: errors.New("connection reset by peer")}
	}
	var items []map[string]any
	hasErrors := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		var action bulkAction
		if err := json.Unmarshal(sc.Bytes(), &action); err != nil {
			return nil, engineError(400, "x_content_parse_exception", err.Error())
		}
		if !sc.Scan() {
			return nil, engineError(400, "illegal_argument_exception", "missing source line")
		}
		source := slices.Clone(sc.Bytes())
		id := action.Index.ID
		if f.rejectIDs[id] {
			hasErrors = true
			items = append(items, map[string]any{"index": map[string]any{
				"_index": action.Index.Index, "_id": id, "status": 400,
				"error": map[string]any{"type": "mapper_parsing_exception", "reason": "failed to parse"},
			}})
			continue
		}
		if _, ok := f.indices[action.Index.Index]; !ok {
			f.indices[action.Index.Index] = map[string]json.RawMessage{}
		}
		f.indices[action.Index.Index][id] = source
		items = append(items, map[string]any{"index": map[string]any{
			"_index": action.Index.Index, "_id": id, "status": 201, "result": "created",
		}})
	}
	return jsonResponse(map[string]any{"took": 3, "errors": hasErrors, "items": items})
}

// search 只实现客户端会发出的三种查询: multi_match 按子串匹配, match_all, more_like_this 返回除种子外的全部文档
func (f *fakeEngine) search(docs map[string]json.RawMessage, data []byte) (*Response, error) {
	var req struct {
		Query map[string]json.RawMessage `json:"query"`
		Size  *int                       `json:"size"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, engineError(400, "parsing_exception", err.Error())
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return x - y
	})

	var matched []string
	switch {
	case req.Query["multi_match"] != nil:
		var mm struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(req.Query["multi_match"], &mm)
		for _, id := range ids {
			var d model.Document
			_ = json.Unmarshal(docs[id], &d)
			if strings.Contains(d.Title, mm.Query) || strings.Contains(d.Content, mm.Query) {
				matched = append(matched, id)
			}
		}
	case req.Query["match_all"] != nil:
		matched = ids
	case req.Query["more_like_this"] != nil:
		var mlt struct {
			Like []struct {
				ID string `json:"_id"`
			} `json:"like"`
		}
		_ = json.Unmarshal(req.Query["more_like_this"], &mlt)
		for _, id := range ids {
			if len(mlt.Like) == 0 || id != mlt.Like[0].ID {
				matched = append(matched, id)
			}
		}
	default:
		return nil, engineError(400, "parsing_exception", "unknown query")
	}

	size := 10
	if req.Size != nil {
		size = *req.Size
	}
	hits := []map[string]any{}
	for i, id := range matched {
		if i >= size {
			break
		}
		hits = append(hits, map[string]any{
			"_index":  "fake",
			"_id":     id,
			"_score":  float64(len(matched) - i),
			"_source": docs[id],
		})
	}
	return jsonResponse(map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total": map[string]any{"value": len(matched), "relation": "eq"},
			"hits":  hits,
		},
	})
}
