package api

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// wsHandler upgrades the connection and hands it to the broadcast hub,
// which fixes room membership to this scenario for the connection's
// lifetime. HandleConnection blocks until the socket closes.
func (s *Server) wsHandler(c *gin.Context) {
	scenarioID := c.Param("id")

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		fail(c, http.StatusBadRequest, "websocket upgrade failed")
		return
	}

	s.hub.HandleConnection(c.Request.Context(), conn, scenarioID)
}
