package prompt

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPLoader 通过 HTTP 拉取模板源
//
// 常与 race 分组搭配：多个镜像地址并发竞速，最快的响应胜出。
type HTTPLoader struct {
	URL    string
	Header map[string]string

	client *resty.Client
}

// NewHTTPLoader 创建 HTTP loader
func NewHTTPLoader(url string) *HTTPLoader {
	return &HTTPLoader{
		URL: url,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(0), // 重试语义由上层 race/fallback 承担
	}
}

// WithHeader 设置请求头，返回自身便于链式调用
func (l *HTTPLoader) WithHeader(key, value string) *HTTPLoader {
	if l.Header == nil {
		l.Header = make(map[string]string)
	}
	l.Header[key] = value
	return l
}

// Load 实现 Loader
func (l *HTTPLoader) Load(ctx context.Context) (string, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeaders(l.Header).
		Get(l.URL)
	if err != nil {
		return "", fmt.Errorf("load template from %s: %w", l.URL, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("load template from %s: status %d", l.URL, resp.StatusCode())
	}
	return resp.String(), nil
}
