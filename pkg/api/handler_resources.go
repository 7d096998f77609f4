package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// listEventsHandler returns a scenario's recent events, newest first,
// honoring an optional ?limit= query parameter.
func (s *Server) listEventsHandler(c *gin.Context) {
	id := c.Param("id")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	events, err := s.store.ListEventsByScenario(c.Request.Context(), id, limit)
	if err != nil {
		internalError(c, s.log, "listEvents", err)
		return
	}
	respond(c, http.StatusOK, events)
}

// listDecisionsHandler returns a scenario's DECISION_REQUIRED events.
func (s *Server) listDecisionsHandler(c *gin.Context) {
	id := c.Param("id")
	events, err := s.store.ListDecisionEventsByScenario(c.Request.Context(), id)
	if err != nil {
		internalError(c, s.log, "listDecisions", err)
		return
	}
	respond(c, http.StatusOK, events)
}

// listIngestLogsHandler returns a scenario's ingest pipeline run history.
func (s *Server) listIngestLogsHandler(c *gin.Context) {
	id := c.Param("id")
	logs, err := s.store.ListIngestLogsByScenario(c.Request.Context(), id)
	if err != nil {
		internalError(c, s.log, "listIngestLogs", err)
		return
	}
	respond(c, http.StatusOK, logs)
}
