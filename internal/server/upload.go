package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

type uploadedFile struct {
	Name     string
	MimeType string
	Bytes    []byte
}

// readImage pulls the multipart "file" field, bounded by the upload limit,
// and rejects anything that does not sniff as an image.
func (s *Server) readImage(c *gin.Context) (uploadedFile, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return uploadedFile{}, common.InvalidInputErrorf("File too large (max %d MB)", s.maxBytes>>20)
		}
		return uploadedFile{}, common.InvalidInputError("No file provided")
	}
	if fh.Size > s.maxBytes {
		return uploadedFile{}, common.InvalidInputErrorf("File too large (max %d MB)", s.maxBytes>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return uploadedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(f)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("read upload: %w", err)
	}
	if len(b) == 0 {
		return uploadedFile{}, common.InvalidInputError("No file provided")
	}
	if !uploads.IsImage(b) {
		return uploadedFile{}, common.InvalidInputErrorf("Unsupported file type: %s", uploads.DetectMime(b))
	}

	mimeType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = uploads.DetectMime(b)
	}
	return uploadedFile{Name: fh.Filename, MimeType: mimeType, Bytes: b}, nil
}
