package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type compressionRequest struct {
	CompressionRatio float64 `json:"compressionRatio" binding:"required"`
}

type seekRequest struct {
	TargetTime time.Time `json:"targetTime" binding:"required"`
}

// getSimulationStateHandler returns the current clock/run record.
func (s *Server) getSimulationStateHandler(c *gin.Context) {
	id := c.Param("id")
	state, found, err := s.store.GetSimulationState(c.Request.Context(), id)
	if err != nil {
		internalError(c, s.log, "getSimulationState", err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "simulation state not found")
		return
	}
	respond(c, http.StatusOK, state)
}

func (s *Server) startSimulationHandler(c *gin.Context) {
	var req compressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	id := c.Param("id")
	if err := s.sim.Start(c.Request.Context(), id, req.CompressionRatio); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "status": "running"})
}

func (s *Server) pauseSimulationHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.sim.Pause(c.Request.Context(), id); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "status": "paused"})
}

func (s *Server) resumeSimulationHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.sim.Resume(c.Request.Context(), id); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "status": "running"})
}

func (s *Server) stopSimulationHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.sim.Stop(c.Request.Context(), id); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "status": "stopped"})
}

func (s *Server) setSimulationSpeedHandler(c *gin.Context) {
	var req compressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	id := c.Param("id")
	if err := s.sim.SetSpeed(c.Request.Context(), id, req.CompressionRatio); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "compressionRatio": req.CompressionRatio})
}

func (s *Server) seekSimulationHandler(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	id := c.Param("id")
	if err := s.sim.Seek(c.Request.Context(), id, req.TargetTime); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "targetTime": req.TargetTime})
}
