package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/local/events/export
func (s *Server) exportEvents(c *gin.Context) {
	b, err := s.deps.Export.ExtractionsXLSX(c.Request.Context())
	if err != nil {
		fail(c, "Export failed", err)
		return
	}
	name := fmt.Sprintf("scavenger-events-%s.xlsx", s.now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, b)
}
