package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesRegisteredCollectors(t *testing.T) {
	Tick("sc-metrics-test")
	MissionTransition("sc-metrics-test", "BRIEFED")
	CoverageCycle("sc-metrics-test")
	GapDetected("sc-metrics-test")
	DecisionRaised("sc-metrics-test")
	LLMAttempt("campaign_plan", "success", 0.5)
	IngestLog("sc-metrics-test", "success")
	ConnectionOpened()
	ConnectionClosed()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "overwatch_simulation_ticks_total")
	assert.Contains(t, body, "overwatch_coverage_gaps_total")
	assert.Contains(t, body, "overwatch_llm_attempts_total")
	assert.True(t, strings.Contains(body, "overwatch_websocket_connections"))
}
