package uploads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/internal/common"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "my_flyer__1_.png", SafeFilename("my flyer (1).png"))
	assert.Equal(t, "a-b.c", SafeFilename("a-b.c"))
	assert.Equal(t, ".._etc_passwd", SafeFilename("../etc/passwd"))
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1739900000000) }

	saved, err := s.Save(context.Background(), "pizza night.png", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "1739900000000_pizza_night.png", saved.Name)
	assert.Equal(t, "/uploads/1739900000000_pizza_night.png", saved.URL)
	assert.Equal(t, "image/png", saved.MimeType)
	assert.EqualValues(t, len(pngBytes), saved.SizeBytes)

	b, mt, err := s.Open(saved.URL)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, b)
	assert.Equal(t, "image/png", mt)
}

func TestLocalStore_SaveEmptyName(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	saved, err := s.Save(context.Background(), "", pngBytes)
	require.NoError(t, err)
	assert.Regexp(t, `^\d+_flyer$`, saved.Name)
}

func TestLocalStore_OpenRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, _, err = s.Open("/uploads/../secret")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, _, err = s.Open("/uploads/missing.png")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage(pngBytes))
	assert.False(t, IsImage([]byte("%PDF-1.7 not an image")))
	assert.False(t, IsImage([]byte("hello")))
}

func TestRemoteCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	dir := t.TempDir()
	store, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	c := NewRemoteCache(store, srv.Client(), nil, host)
	ctx := context.Background()

	localURL, cached, err := c.Cache(ctx, srv.URL+"/photo")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Regexp(t, `^/uploads/remote_[0-9a-f]{16}\.png$`, localURL)
	_, err = os.Stat(filepath.Join(dir, filepath.Base(localURL)))
	require.NoError(t, err)

	again, cached, err := c.Cache(ctx, srv.URL+"/photo")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, localURL, again)
	assert.EqualValues(t, 1, hits.Load())

	_, _, err = c.Cache(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Contains(t, err.Error(), "Failed to fetch image: 404")
}

func TestRemoteCache_SizeLimit(t *testing.T) {
	big := append(append([]byte{}, pngBytes...), make([]byte, 64)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if r.URL.Path == "/chunked" {
			// no Content-Length: the body must be cut off while reading
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write(big)
	}))
	defer srv.Close()

	dir := t.TempDir()
	store, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	c := NewRemoteCache(store, srv.Client(), nil, mustHost(t, srv.URL)).WithMaxBytes(int64(len(pngBytes)))

	for _, path := range []string{"/sized", "/chunked"} {
		_, _, err := c.Cache(context.Background(), srv.URL+path)
		require.Error(t, err, path)
		assert.ErrorIs(t, err, common.ErrUpstream, path)
		assert.Contains(t, common.Message(err), "Remote image too large", path)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	c.WithMaxBytes(int64(len(big)))
	_, _, err = c.Cache(context.Background(), srv.URL+"/sized")
	require.NoError(t, err)
}

func TestRemoteCache_DefaultClientHasTimeout(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	c := NewRemoteCache(store, nil, nil)
	assert.Equal(t, DefaultFetchTimeout, c.http.Timeout)
	assert.NotSame(t, http.DefaultClient, c.http)
}

func TestRemoteCache_Rejects(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	c := NewRemoteCache(store, nil, nil)
	ctx := context.Background()

	tests := []struct{ in, want string }{
		{"", "Missing url"},
		{"not a url", "Invalid url"},
		{"ftp://images.unsplash.com/x.jpg", "Invalid url protocol"},
		{"https://evil.example.com/x.jpg", "Host not allowed: evil.example.com"},
	}
	for _, tt := range tests {
		_, _, err := c.Cache(ctx, tt.in)
		require.Error(t, err, tt.in)
		assert.ErrorIs(t, err, common.ErrInvalidInput, tt.in)
		assert.Equal(t, tt.want, common.Message(err), tt.in)
	}
}

func mustHost(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Hostname()
}
