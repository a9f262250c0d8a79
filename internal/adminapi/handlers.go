// Package adminapi exposes the Coordinator's update, restore, and
// long-retry operations over HTTP for an operator console, the way the
// teacher's internal/api package exposes its store and replicator.
package adminapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filestore-consensus/internal/artifact"
	"filestore-consensus/internal/coordinator"
	"filestore-consensus/internal/replica"
)

// Handler holds the dependencies injected from cmd/apiserver.
type Handler struct {
	coord *coordinator.Coordinator
	auth  *AuthService
}

// NewHandler creates a Handler.
func NewHandler(coord *coordinator.Coordinator, auth *AuthService) *Handler {
	return &Handler{coord: coord, auth: auth}
}

// Register mounts all routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/auth/login", h.Login)

	consensus := r.Group("/consensus")
	consensus.Use(RequireBearerToken(h.auth))
	consensus.POST("/update", h.Update)
	consensus.POST("/restore", h.Restore)
	consensus.POST("/retry-unresponsive", h.RetryUnresponsive)

	cluster := r.Group("/cluster")
	cluster.Use(RequireBearerToken(h.auth))
	cluster.GET("/status", h.Status)
}

// Login handles POST /auth/login.
// Body: {"api_key": "<string>"}
func (h *Handler) Login(c *gin.Context) {
	var body struct {
		APIKey string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Authenticate(body.APIKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// artifactRequest is the shared JSON shape for an artifact payload.
type artifactRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
	Version int    `json:"version" binding:"required"`
}

// Update handles POST /consensus/update.
func (h *Handler) Update(c *gin.Context) {
	var body struct {
		artifactRequest
		AckTimeoutMs  int `json:"ack_timeout_ms" binding:"required"`
		RetryLimit    int `json:"retry_limit"`
		RetryPeriodMs int `json:"retry_period_ms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := artifact.New(body.Name, []byte(body.Content), body.Version)
	if !h.coord.Validate(a) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "artifact failed validation"})
		return
	}

	ok := h.coord.UpdateConsensus(c.Request.Context(), a, body.AckTimeoutMs, body.RetryLimit, body.RetryPeriodMs)
	c.JSON(http.StatusOK, gin.H{
		"ok":           ok,
		"unresponsive": replicaIDs(h.coord.Unresponsive()),
	})
}

// Restore handles POST /consensus/restore.
func (h *Handler) Restore(c *gin.Context) {
	var body struct {
		RetryLimit    int `json:"retry_limit" binding:"required"`
		RetryPeriodMs int `json:"retry_period_ms"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, ok := h.coord.RestoreConsensus(c.Request.Context(), body.RetryLimit, body.RetryPeriodMs)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "restore could not reconcile any content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    result.Name,
		"version": result.Version,
		"content": string(result.Content),
	})
}

// RetryUnresponsive handles POST /consensus/retry-unresponsive.
func (h *Handler) RetryUnresponsive(c *gin.Context) {
	var body struct {
		artifactRequest
		LongRetryLimit  int `json:"long_retry_limit" binding:"required"`
		RetryIntervalMs int `json:"retry_interval_ms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := artifact.New(body.Name, []byte(body.Content), body.Version)
	h.coord.RetryUnresponsive(c.Request.Context(), a, body.LongRetryLimit, time.Duration(body.RetryIntervalMs)*time.Millisecond)
	c.JSON(http.StatusOK, gin.H{
		"unresponsive": replicaIDs(h.coord.Unresponsive()),
		"unavailable":  replicaIDs(h.coord.Unavailable()),
	})
}

// Status handles GET /cluster/status.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total":        len(h.coord.Replicas()),
		"unresponsive": replicaIDs(h.coord.Unresponsive()),
		"unavailable":  replicaIDs(h.coord.Unavailable()),
	})
}

func replicaIDs(replicas []*replica.Replica) []int {
	ids := make([]int, 0, len(replicas))
	for _, r := range replicas {
		ids = append(ids, r.ID())
	}
	return ids
}
