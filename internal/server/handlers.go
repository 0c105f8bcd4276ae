package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/alvmarrod/graph-weaver/internal/config"
	"github.com/alvmarrod/graph-weaver/internal/extract"
	"github.com/alvmarrod/graph-weaver/internal/weaver"
)

// BuildGraphRequest is the body of POST /api/v1/graph
type BuildGraphRequest struct {
	Seeds      []string `json:"seeds"`
	Extractors []string `json:"extractors"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Handler serves the graph API
type Handler struct {
	svc     GraphService
	version string
}

// NewHandler creates a handler over svc
func NewHandler(svc GraphService, version string) *Handler {
	return &Handler{svc: svc, version: version}
}

// RegisterRoutes mounts the health check and the versioned API
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	api.POST("/graph", h.BuildGraph)
	api.GET("/graph/top", h.TopN)
}

// Health reports liveness with the build version
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

// BuildGraph crawls the requested seeds and returns the node-link graph.
// An empty body falls back to the configured seeds and extractors.
func (h *Handler) BuildGraph(c *gin.Context) {
	var req BuildGraphRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	nl, err := h.svc.BuildGraph(c.Request.Context(), req.Seeds, req.Extractors)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrNoSeeds), errors.Is(err, extract.ErrUnknownExtractor):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.Errorf("Build graph failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, nl)
}

// TopN returns the highest ranked URLs per domain; n defaults to the configured value
func (h *Handler) TopN(c *gin.Context) {
	n := 0
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = v
	}

	clusters, err := h.svc.TopNPerDomain(n)
	if err != nil {
		if errors.Is(err, weaver.ErrNoGraph) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, clusters)
}
