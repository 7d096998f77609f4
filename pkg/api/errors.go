package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// internalError logs an unexpected error and writes a 500 envelope, never
// leaking the underlying error text to the client.
func internalError(c *gin.Context, log *slog.Logger, op string, err error) {
	log.Error("api: internal error", "op", op, "error", err)
	fail(c, http.StatusInternalServerError, "internal server error")
}
