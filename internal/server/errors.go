package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/scavenger/internal/common"
)

// errorBody maps err onto a status and JSON body. label is the route's
// generic failure message ("Local extract failed"); client errors report
// their own message instead.
func errorBody(label string, err error) (int, gin.H) {
	msg := common.Message(err)
	switch {
	case common.IsMissingConfig(err):
		return http.StatusBadRequest, gin.H{
			"success": false,
			"error":   msg,
			"details": msg,
			"hint":    common.SetupHint(err),
		}
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, gin.H{"success": false, "error": msg}
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"success": false, "error": msg}
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway, gin.H{"success": false, "error": msg}
	case errors.Is(err, common.ErrProvider):
		return http.StatusBadGateway, gin.H{"success": false, "error": label, "details": msg}
	default:
		return http.StatusInternalServerError, gin.H{"success": false, "error": label, "details": msg}
	}
}

func fail(c *gin.Context, label string, err error) {
	_ = c.Error(err)
	status, body := errorBody(label, err)
	c.AbortWithStatusJSON(status, body)
}
