package prompt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ═══════════════════════════════════════════════════════════════════════════
// 内置 Loader Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestStringLoader(t *testing.T) {
	l := NewStringLoader("inline", "hello world")

	got, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestStringLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStringLoader("inline", "x").Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoaderFunc(t *testing.T) {
	l := LoaderFunc(func(ctx context.Context) (string, error) {
		return "from func", nil
	})

	got, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "from func", got)
}

func TestFileLoader(t *testing.T) {
	t.Run("reads_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tpl.txt")
		require.NoError(t, os.WriteFile(path, []byte("file content"), 0o644))

		got, err := NewFileLoader(path).Load(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "file content", got)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := NewFileLoader(filepath.Join(t.TempDir(), "nope.txt")).Load(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// HTTPLoader Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestHTTPLoader(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte("remote template"))
		}))
		defer srv.Close()

		l := NewHTTPLoader(srv.URL).WithHeader("Authorization", "Bearer tok")

		got, err := l.Load(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "remote template", got)
	})

	t.Run("error_status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPLoader(srv.URL).Load(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// CachedLoader Tests
// ═══════════════════════════════════════════════════════════════════════════

// countingLoader 记录 Load 调用次数
type countingLoader struct {
	count   atomic.Int64
	content string
}

func (l *countingLoader) Load(ctx context.Context) (string, error) {
	l.count.Add(1)
	return l.content, nil
}

func TestCachedLoader_LoadsOnce(t *testing.T) {
	inner := &countingLoader{content: "cached"}
	l := NewCachedLoader(inner, 0)

	for range 3 {
		got, err := l.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cached", got)
	}

	assert.Equal(t, int64(1), inner.count.Load())
}

func TestCachedLoader_TTLExpiry(t *testing.T) {
	inner := &countingLoader{content: "cached"}
	l := NewCachedLoader(inner, 10*time.Millisecond)

	_, err := l.Load(context.Background())
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.count.Load())
}

func TestCachedLoader_Invalidate(t *testing.T) {
	inner := &countingLoader{content: "cached"}
	l := NewCachedLoader(inner, 0)

	_, err := l.Load(context.Background())
	require.NoError(t, err)

	l.Invalidate()

	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.count.Load())
}

func TestCachedLoader_ConcurrentMissCollapsed(t *testing.T) {
	inner := &countingLoader{content: "cached"}
	l := NewCachedLoader(inner, 0)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := l.Load(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "cached", got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), inner.count.Load())
}
