package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/scavenger/internal/common"
)

// POST /api/flyers
func (s *Server) uploadFlyer(c *gin.Context) {
	const label = "Upload failed"
	up, err := s.readImage(c)
	if err != nil {
		fail(c, label, err)
		return
	}

	f, err := s.deps.Flyers.Upload(c.Request.Context(), up.Name, up.MimeType, up.Bytes)
	if err != nil {
		fail(c, label, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"flyerId":     f.ID,
		"downloadURL": f.DownloadURL,
		"storagePath": f.StoragePath,
		"message":     "Upload successful",
	})
}

// POST /api/flyers/:flyerId/extract
func (s *Server) extractFlyer(c *gin.Context) {
	const label = "Extraction failed"
	id := strings.TrimSpace(c.Param("flyerId"))
	if id == "" {
		fail(c, label, common.InvalidInputError("flyerId is required"))
		return
	}

	res, err := s.deps.Flyers.Extract(c.Request.Context(), id)
	if err != nil {
		fail(c, label, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"flyerId":      res.FlyerID,
		"extractionId": res.ExtractionID,
		"extraction":   res.Extraction,
	})
}
