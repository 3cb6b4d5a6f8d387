package uploads

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
)

// DefaultAllowedHosts are the remote image hosts the cache will fetch from.
var DefaultAllowedHosts = []string{"images.unsplash.com", "source.unsplash.com"}

// DefaultFetchTimeout bounds a remote fetch when no client is supplied.
const DefaultFetchTimeout = 15 * time.Second

// RemoteCache copies allow-listed remote images into a LocalStore so pages can
// serve them from /uploads.
type RemoteCache struct {
	store   *LocalStore
	allowed  map[string]struct{}
	http     *http.Client
	maxBytes int64
	logger   *slog.Logger
}

func NewRemoteCache(store *LocalStore, client *http.Client, logger *slog.Logger, allowedHosts ...string) *RemoteCache {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(allowedHosts) == 0 {
		allowedHosts = DefaultAllowedHosts
	}
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		allowed[strings.ToLower(h)] = struct{}{}
	}
	return &RemoteCache{
		store:    store,
		allowed:  allowed,
		http:     client,
		maxBytes: int64(constants.MaxUploadMBDefault) << 20,
		logger:   logger,
	}
}

// WithMaxBytes caps the size of a fetched image; n <= 0 keeps the default.
func (c *RemoteCache) WithMaxBytes(n int64) *RemoteCache {
	if n > 0 {
		c.maxBytes = n
	}
	return c
}

// Cache returns the local URL for rawURL, fetching it on first use. cached
// reports whether an existing copy was reused.
func (c *RemoteCache) Cache(ctx context.Context, rawURL string) (localURL string, cached bool, err error) {
	if rawURL == "" {
		return "", false, common.InvalidInputError("Missing url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false, common.InvalidInputError("Invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false, common.InvalidInputError("Invalid url protocol")
	}
	if _, ok := c.allowed[strings.ToLower(u.Hostname())]; !ok {
		return "", false, common.InvalidInputError("Host not allowed: " + u.Hostname())
	}

	sum := sha256.Sum256([]byte(rawURL))
	prefix := "remote_" + hex.EncodeToString(sum[:])[:16] + "."

	if name, ok := c.existing(prefix); ok {
		return URLPrefix + name, true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, common.InvalidInputError("Invalid url")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("uploads.remote.fetch_error", "url", rawURL, "error", err)
		return "", false, common.NewAppError(common.CodeUpstream, "Failed to fetch image", fmt.Errorf("%w: %w", common.ErrUpstream, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", false, common.UpstreamError(fmt.Sprintf("Failed to fetch image: %d", resp.StatusCode))
	}
	if resp.ContentLength > c.maxBytes {
		return "", false, c.tooLarge(rawURL)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", false, common.NewAppError(common.CodeUpstream, "Failed to read image", fmt.Errorf("%w: %w", common.ErrUpstream, err))
	}
	if int64(len(b)) > c.maxBytes {
		return "", false, c.tooLarge(rawURL)
	}

	saved, err := c.store.write(prefix+extFromContentType(resp.Header.Get("Content-Type")), b)
	if err != nil {
		return "", false, err
	}
	c.logger.Info("uploads.remote.cached", "url", rawURL, "name", saved.Name)
	return saved.URL, false, nil
}

func (c *RemoteCache) tooLarge(rawURL string) error {
	c.logger.Warn("uploads.remote.too_large", "url", rawURL, "max_bytes", c.maxBytes)
	return common.UpstreamError(fmt.Sprintf("Remote image too large (max %d bytes)", c.maxBytes))
}

func (c *RemoteCache) existing(prefix string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(c.store.dir, prefix+"*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	name := filepath.Base(matches[0])
	if _, err := os.Stat(matches[0]); err != nil {
		return "", false
	}
	return name, true
}

func extFromContentType(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "image/png"):
		return "png"
	case strings.Contains(ct, "image/webp"):
		return "webp"
	case strings.Contains(ct, "image/gif"):
		return "gif"
	default:
		return "jpg"
	}
}
