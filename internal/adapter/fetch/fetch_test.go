package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/logger"
	"github.com/tejashwikalptaru/wavesync/internal/testutil"
)

func newTestRouter(maxBytes int64) *Router {
	return New(logger.NewTestLogger(), 5*time.Second, maxBytes)
}

func TestHTTPFetcher_OK(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPTestGoroutines()...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFF-bytes"))
	}))
	defer srv.Close()

	data, err := newTestRouter(0).Fetch(context.Background(), srv.URL+"/a.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-bytes"), data)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestRouter(0).Fetch(context.Background(), srv.URL+"/missing.wav")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.True(t, domain.ClassifyError(err).Retryable())
}

func TestHTTPFetcher_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	_, err := newTestRouter(1024).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

func TestHTTPFetcher_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestRouter(0).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestRouter(0).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, domain.ReasonFetch, domain.ClassifyError(err))
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	r := newTestRouter(0)

	data, err := r.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	data, err = r.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	_, err = r.Fetch(context.Background(), filepath.Join(dir, "nope.wav"))
	assert.True(t, errors.Is(err, domain.ErrFetch))

	_, err = r.Fetch(context.Background(), dir)
	assert.True(t, errors.Is(err, domain.ErrFetch))

	_, err = newTestRouter(2).Fetch(context.Background(), path)
	assert.True(t, errors.Is(err, ErrTooLarge))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Fetch(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://cdn.example/a.mp3"))
	assert.True(t, IsRemote("HTTP://cdn.example/a.mp3"))
	assert.False(t, IsRemote("/tmp/a.mp3"))
	assert.False(t, IsRemote("file:///tmp/a.mp3"))
	assert.Equal(t, "/tmp/a.mp3", localPath("file:///tmp/a.mp3"))
}
