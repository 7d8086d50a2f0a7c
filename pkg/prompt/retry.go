package prompt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
)

// RetryConfig Provider 调用重试配置
type RetryConfig struct {
	MaxRetries     int           // 最大重试次数（0 表示不重试）
	InitialBackoff time.Duration // 初始退避时间
	MaxBackoff     time.Duration // 最大退避时间
	Multiplier     float64       // 退避倍数（指数退避）
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     2, // 最多重试 2 次（总共调用 3 次）
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
}

// IsRetriable 判断错误是否可重试
//
// 配置错误（*ConfigError）永远不重试：配置错误是致命的，重放
// 同样的请求不会有不同结果。
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}

	// 配置错误不走模式匹配，无论错误文本长什么样
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retriablePatterns := []string{
		"timeout",
		"connection refused",
		"temporary failure",
		"rate limit",
		"429",
		"503",
		"context deadline exceeded",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// completeWithRetry 带指数退避重试的 Provider 调用
//
// 返回响应与实际调用次数（含首次）。
func (p *Prompt) completeWithRetry(ctx context.Context, messages []llm.Message, opts *llm.Options) (*llm.Response, int, error) {
	cfg := p.retryConfig
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		resp, err := p.provider.Complete(ctx, messages, opts)
		if err == nil {
			return resp, attempt + 1, nil
		}

		lastErr = err

		if !IsRetriable(err) {
			p.logger.Debug("error not retriable", "error", err, "attempt", attempt)
			return nil, attempt + 1, err
		}

		if attempt >= cfg.MaxRetries {
			p.logger.Warn("max retries reached", "max_retries", cfg.MaxRetries, "error", err)
			break
		}

		p.logger.Info("retrying after backoff", "attempt", attempt+1, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return nil, attempt + 1, ctx.Err()
		case <-time.After(backoff):
			backoff = min(time.Duration(float64(backoff)*cfg.Multiplier), cfg.MaxBackoff)
		}
	}

	return nil, cfg.MaxRetries + 1, lastErr
}
