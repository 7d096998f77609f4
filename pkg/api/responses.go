package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// envelope is the contractual response shape for every JSON endpoint.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// respond writes a successful envelope with the given status and data.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data, Timestamp: now()})
}

// fail writes a failed envelope with the given status and message.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Error: msg, Timestamp: now()})
}

// scenarioCreatedResponse is returned by POST /api/scenarios/generate.
type scenarioCreatedResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	GenerationStatus string `json:"generationStatus"`
}

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status   string `json:"status"`
	Database any    `json:"database"`
}
