// Package api provides the REST API server for midikeys
package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/cpayne/midikeys/pkg/session"
	"github.com/cpayne/midikeys/pkg/timeline"
)

// @title midikeys API
// @version 1.0
// @description API for preparing MIDI files and controlling key playback
// @host localhost:8080
// @BasePath /api/v1

// Server wires HTTP handlers onto a shared playback controller.
type Server struct {
	ctl *session.Controller
}

// NewServer creates a Server around ctl.
func NewServer(ctl *session.Controller) *Server {
	return &Server{ctl: ctl}
}

// Start runs the API server on the specified port.
func (s *Server) Start(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/load", s.handleLoad)
		v1.POST("/play", s.handlePlay)
		v1.POST("/stop", s.handleStop)
		v1.GET("/status", s.handleStatus)
		v1.GET("/keymap", handleKeymap)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midikeys",
	})
}

// handleLoad godoc
// @Summary Load a MIDI file
// @Description Upload a MIDI file; it is parsed and normalized into the playback timeline
// @Tags playback
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to load"
// @Param chord_gap query string false "Minimum gap between chord members in seconds (default 0.01)"
// @Param note_gap query string false "Minimum gap between consecutive events in seconds (default 0.03)"
// @Success 200 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/load [post]
func (s *Server) handleLoad(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	chordGap := c.DefaultQuery("chord_gap", "")
	noteGap := c.DefaultQuery("note_gap", "")

	count, err := s.ctl.LoadBytes(data, chordGap, noteGap)
	if err != nil {
		if err == session.ErrLoadInProgress {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": count})
}

// handlePlay godoc
// @Summary Start playback
// @Description Starts playback of the loaded timeline
// @Tags playback
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/play [post]
func (s *Server) handlePlay(c *gin.Context) {
	if err := s.ctl.Play(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "playing"})
}

// handleStop godoc
// @Summary Stop playback
// @Description Stops playback and releases any held keys; idempotent
// @Tags playback
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/stop [post]
func (s *Server) handleStop(c *gin.Context) {
	s.ctl.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// handleStatus godoc
// @Summary Playback status
// @Description Reports whether a load or playback is in progress and the loaded event count
// @Tags playback
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/status [get]
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"loading": s.ctl.IsLoading(),
		"playing": s.ctl.IsPlaying(),
		"events":  s.ctl.EventCount(),
	})
}

// handleKeymap godoc
// @Summary Key mapping
// @Description Returns the MIDI note to key symbol mapping used for playback
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/keymap [get]
func handleKeymap(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"keymap":     timeline.KeyMap,
		"white_keys": timeline.WhiteKeys,
	})
}
