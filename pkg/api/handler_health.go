package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neg-0/overwatch/pkg/store"
)

// healthHandler reports DB reachability — 200 when healthy, 503 otherwise.
func (s *Server) healthHandler(c *gin.Context) {
	status, err := store.Health(c.Request.Context(), s.store.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, envelope{
			Success:   false,
			Data:      healthResponse{Status: "unhealthy", Database: err.Error()},
			Timestamp: now(),
		})
		return
	}
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, envelope{
		Success:   status.Status == "healthy",
		Data:      healthResponse{Status: status.Status, Database: status},
		Timestamp: now(),
	})
}
