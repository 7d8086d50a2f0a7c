package prompt

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedLoader 带 TTL 缓存的 loader 包装器
//
// 并发的缓存未命中通过 singleflight 合并为一次底层加载，避免
// 热点模板在缓存过期瞬间击穿到远端。
type CachedLoader struct {
	inner Loader
	ttl   time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	source   string
	loadedAt time.Time
}

// NewCachedLoader 包装 loader 并附加 TTL 缓存
//
// ttl <= 0 表示永不过期（进程生命周期内只加载一次）。
func NewCachedLoader(inner Loader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{inner: inner, ttl: ttl}
}

// Load 实现 Loader
func (l *CachedLoader) Load(ctx context.Context) (string, error) {
	l.mu.RLock()
	source, ok := l.cached()
	l.mu.RUnlock()
	if ok {
		return source, nil
	}

	v, err, _ := l.group.Do("load", func() (any, error) {
		// singleflight 排队期间可能已有别的调用填充了缓存
		l.mu.RLock()
		source, ok := l.cached()
		l.mu.RUnlock()
		if ok {
			return source, nil
		}

		source, err := l.inner.Load(ctx)
		if err != nil {
			return "", err
		}

		l.mu.Lock()
		l.source = source
		l.loadedAt = time.Now()
		l.mu.Unlock()
		return source, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate 清空缓存，下一次 Load 重新加载
func (l *CachedLoader) Invalidate() {
	l.mu.Lock()
	l.loadedAt = time.Time{}
	l.mu.Unlock()
}

// cached 返回未过期的缓存内容；调用方需持有读锁
func (l *CachedLoader) cached() (string, bool) {
	if l.loadedAt.IsZero() {
		return "", false
	}
	if l.ttl > 0 && time.Since(l.loadedAt) > l.ttl {
		return "", false
	}
	return l.source, true
}
