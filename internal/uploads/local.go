package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
)

// URLPrefix is where stored images are served.
const URLPrefix = "/uploads/"

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SavedFile describes an image written to the uploads directory.
type SavedFile struct {
	Name         string // file name inside the directory
	RelativePath string // e.g. uploads/1739900000000_flyer.png
	URL          string // public URL, e.g. /uploads/1739900000000_flyer.png
	MimeType     string // sniffed from content
	SizeBytes    int64
}

// LocalStore writes uploaded images under one directory served at URLPrefix.
type LocalStore struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.NewAppError(common.CodeStorage, "create uploads dir", err)
	}
	return &LocalStore{dir: dir, now: time.Now, logger: logger}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// SafeFilename replaces every character outside [A-Za-z0-9.-] with '_'.
func SafeFilename(name string) string {
	return reUnsafe.ReplaceAllString(name, "_")
}

// Save writes b as <unix-ms>_<sanitized name>.
func (s *LocalStore) Save(ctx context.Context, filename string, b []byte) (SavedFile, error) {
	safe := SafeFilename(filename)
	if safe == "" {
		safe = constants.DefaultFlyerFilename
	}
	name := fmt.Sprintf("%d_%s", s.now().UnixMilli(), safe)
	return s.write(name, b)
}

func (s *LocalStore) write(name string, b []byte) (SavedFile, error) {
	if err := os.WriteFile(filepath.Join(s.dir, name), b, 0o644); err != nil {
		s.logger.Error("uploads.write_error", "name", name, "error", err)
		return SavedFile{}, common.NewAppError(common.CodeStorage, "write upload", err)
	}
	s.logger.Info("uploads.saved", "name", name, "bytes", len(b))
	return SavedFile{
		Name:         name,
		RelativePath: path.Join(filepath.Base(s.dir), name),
		URL:          URLPrefix + name,
		MimeType:     DetectMime(b),
		SizeBytes:    int64(len(b)),
	}, nil
}

// Open reads a stored image back from its public URL (or bare file name).
func (s *LocalStore) Open(url string) ([]byte, string, error) {
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, "", common.InvalidInputErrorf("invalid upload reference %q", url)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", common.NotFoundError("Flyer image not found")
		}
		return nil, "", common.NewAppError(common.CodeStorage, "read upload", err)
	}
	return b, DetectMime(b), nil
}

// DetectMime sniffs the content type, ignoring parameters.
func DetectMime(b []byte) string {
	mt := mimetype.Detect(b).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// IsImage reports whether b sniffs as an accepted flyer image type.
func IsImage(b []byte) bool {
	m := mimetype.Detect(b)
	return strings.HasPrefix(m.String(), "image/") && constants.IsAllowedImageExt(m.Extension())
}
