package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/feed"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

// Sink runs extraction on one image and stores the record.
type Sink interface {
	ExtractAndStore(ctx context.Context, up feed.Upload) (feed.ExtractResult, error)
}

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string `json:"path"`
	RecordID     string `json:"recordId,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
	HashHex      string `json:"hashHex,omitempty"`
	ParseFailed  bool   `json:"parseFailed,omitempty"`
	Err          string `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}

// Ingestor feeds flyer images from disk into the local extraction records.
// Images whose content was already ingested by this Ingestor are skipped.
type Ingestor struct {
	sink   Sink
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // sha256 hex -> record id
}

func NewIngestor(sink Sink, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{sink: sink, logger: logger, seen: map[string]string{}}
}

// IngestPath extracts a single image file.
func (g *Ingestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	start := time.Now()
	res := FileResult{Path: path}

	if !AllowedExt(filepath.Ext(path)) {
		return res, common.InvalidInputErrorf("unsupported or missing extension: %q", filepath.Ext(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	if !uploads.IsImage(b) {
		return res, common.InvalidInputErrorf("Unsupported file type: %s", uploads.DetectMime(b))
	}

	sum := sha256.Sum256(b)
	res.HashHex = hex.EncodeToString(sum[:])
	if id, ok := g.lookup(res.HashHex); ok {
		res.RecordID = id
		res.Deduplicated = true
		g.logger.Info("ingest.deduplicated", "path", path, "record_id", id)
		return res, nil
	}

	out, err := g.sink.ExtractAndStore(ctx, feed.Upload{
		Filename: filepath.Base(path),
		MimeType: uploads.DetectMime(b),
		Bytes:    b,
	})
	if err != nil {
		g.logger.Error("ingest.extract_failed", "path", path, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return res, err
	}
	g.remember(res.HashHex, out.Record.ID)

	res.RecordID = out.Record.ID
	res.ParseFailed = out.ParseFailed
	g.logger.Info("ingest.stored",
		"path", path,
		"record_id", out.Record.ID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (g *Ingestor) lookup(hash string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.seen[hash]
	return id, ok
}

func (g *Ingestor) remember(hash, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[hash] = id
}

// AllowedExt reports whether ext (with or without dot) names a flyer image.
func AllowedExt(ext string) bool {
	return constants.IsAllowedImageExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
