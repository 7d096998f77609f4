package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_EmitToEmptyRoomIsNotAnError(t *testing.T) {
	h := New(2*time.Second, nil)
	err := h.Emit(context.Background(), "scenario-1", "mission:status", map[string]any{"missionId": "m-1"})
	require.NoError(t, err)
}

func TestHub_EmitScenarioAndIngestEventAliasesDelegateToEmit(t *testing.T) {
	h := New(2*time.Second, nil)
	require.NoError(t, h.EmitScenarioEvent(context.Background(), "s-1", "scenario:generation-progress", nil))
	require.NoError(t, h.EmitIngestEvent(context.Background(), "s-1", "ingest:classified", nil))
}

// The connection here has no websocket, so unregister (which also closes
// the socket) is not called; the test removes the connection from the
// room and connection maps by hand, as unregister does.
func TestHub_RegisterAndManualRemovalTrackActiveConnections(t *testing.T) {
	h := New(2*time.Second, nil)
	assert.Equal(t, 0, h.ActiveConnections())

	c := &connection{id: "conn-1", room: "scenario-1"}
	h.register(c)
	assert.Equal(t, 1, h.ActiveConnections())
	assert.True(t, h.rooms["scenario-1"]["conn-1"])

	h.roomMu.Lock()
	delete(h.rooms["scenario-1"], c.id)
	if len(h.rooms["scenario-1"]) == 0 {
		delete(h.rooms, "scenario-1")
	}
	h.roomMu.Unlock()
	h.mu.Lock()
	delete(h.connections, c.id)
	h.mu.Unlock()

	assert.Equal(t, 0, h.ActiveConnections())
	_, stillExists := h.rooms["scenario-1"]
	assert.False(t, stillExists)
}
