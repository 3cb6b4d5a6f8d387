package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/feed"
)

// POST /api/events
func (s *Server) createEvent(c *gin.Context) {
	const label = "Create event failed"
	var req feed.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, label, common.InvalidInputError("Invalid JSON body"))
		return
	}

	ev, err := s.deps.Feed.Publish(c.Request.Context(), req)
	if err != nil {
		fail(c, label, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "eventId": ev.ID})
}

// GET /api/events?from=ISO&to=ISO
func (s *Server) listEvents(c *gin.Context) {
	const label = "List events failed"
	from, err := queryTime(c, "from")
	if err != nil {
		fail(c, label, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		fail(c, label, err)
		return
	}

	events, err := s.deps.Feed.Range(c.Request.Context(), from, to)
	if err != nil {
		fail(c, label, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, common.InvalidInputErrorf("%s must be a valid ISO date-time", key)
	}
	return &t, nil
}
