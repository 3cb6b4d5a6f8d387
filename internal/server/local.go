package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/feed"
)

// POST /api/local/extract
func (s *Server) localExtract(c *gin.Context) {
	const label = "Local extract failed"
	up, err := s.readImage(c)
	if err != nil {
		fail(c, label, err)
		return
	}

	res, err := s.deps.Feed.ExtractAndStore(c.Request.Context(), feed.Upload{
		Filename: up.Name,
		MimeType: up.MimeType,
		Bytes:    up.Bytes,
	})
	if err != nil {
		fail(c, label, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"event":          res.Event,
		"rawModelOutput": res.RawModelOutput,
		"saved":          gin.H{"id": res.Record.ID},
	})
}

// GET /api/local/events
func (s *Server) localEvents(c *gin.Context) {
	recs, err := s.deps.Feed.List(c.Request.Context())
	if err != nil {
		fail(c, "Failed to read local events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": recs})
}

// GET /api/local/upcoming?limit=N
func (s *Server) localUpcoming(c *gin.Context) {
	limit := feed.ParseLimit(c.Query("limit"))
	recs, err := s.deps.Feed.Upcoming(c.Request.Context(), s.now(), limit)
	if err != nil {
		fail(c, "Failed to read upcoming local events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": recs})
}

type cacheImageRequest struct {
	URL string `json:"url"`
}

// POST /api/local/cache-image
func (s *Server) cacheImage(c *gin.Context) {
	const label = "Failed to cache image"
	var req cacheImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, label, common.InvalidInputError("Missing url"))
		return
	}

	localURL, cached, err := s.deps.Images.Cache(c.Request.Context(), req.URL)
	if err != nil {
		fail(c, label, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "localUrl": localURL, "cached": cached})
}
