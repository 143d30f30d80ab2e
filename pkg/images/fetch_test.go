package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	body := createTestPNG(3, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/red.png" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "boxflow-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStore_LoadRemote(t *testing.T) {
	var hits atomic.Int32
	srv := imageServer(t, &hits)

	s := NewStore()
	s.Fetcher = NewHTTPFetcher(5*time.Second, "boxflow-test")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := s.Load(srv.URL + "/red.png")
			if assert.NoError(t, err) {
				assert.Equal(t, 3.0, img.Width)
				assert.Equal(t, 2.0, img.Height)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load(), "one fetch per source")
	assert.Equal(t, 1, s.Len())
}

func TestStore_LoadRemoteErrors(t *testing.T) {
	var hits atomic.Int32
	srv := imageServer(t, &hits)

	_, err := NewStore().Load(srv.URL + "/red.png")
	assert.ErrorIs(t, err, ErrNoFetcher)

	s := NewStore()
	s.Fetcher = NewHTTPFetcher(5*time.Second, "boxflow-test")
	_, err = s.Load(srv.URL + "/missing.png")
	assert.ErrorContains(t, err, "HTTP 404")
	assert.Zero(t, s.Len(), "failures are not cached")

	small := NewHTTPFetcher(5*time.Second, "boxflow-test")
	small.MaxBytes = 10
	_, _, err = small.Fetch(context.Background(), srv.URL+"/red.png")
	assert.ErrorContains(t, err, "exceeds 10 bytes")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.LoadContext(ctx, srv.URL+"/red.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsNetworkURL(t *testing.T) {
	assert.True(t, IsNetworkURL("http://example.com/a.png"))
	assert.True(t, IsNetworkURL("https://example.com/a.png"))
	assert.False(t, IsNetworkURL("file:///a.png"))
	assert.False(t, IsNetworkURL("a.png"))
}
