package collector

import "context"

// CollyCrawler 对外只暴露按 URL 取回响应体,请求头、限速等由配置决定
type CollyCrawler interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
