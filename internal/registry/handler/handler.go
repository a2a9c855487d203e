package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docledger/docledger/internal/registry"
	"github.com/docledger/docledger/pkg/logger"
	"github.com/docledger/docledger/pkg/metrics"
)

// ContentStore is the optional content-addressed object store collaborator.
// The registry never moves content through it; the handler only asks whether
// a hash resolves and hands out presigned GET links.
type ContentStore interface {
	Exists(ctx context.Context, contentHash string) (bool, error)
	PresignedGetURL(ctx context.Context, contentHash string, expires time.Duration) (string, error)
}

// Handler exposes the registry operations over HTTP.
type Handler struct {
	reg        *registry.Registry
	content    ContentStore
	verify     bool
	presignTTL time.Duration
}

// New creates a handler. Content may be nil, which disables hash verification
// and presigned links; verify controls whether uploads require the hash to
// resolve in the store.
func New(reg *registry.Registry, content ContentStore, verify bool, presignTTL time.Duration) *Handler {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &Handler{reg: reg, content: content, verify: verify, presignTTL: presignTTL}
}

// Register mounts the registry routes on the given router. Mutating routes
// expect auth middleware to have populated the caller claims.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/registry/documents", h.upload)
	r.GET("/api/registry/owners/:owner/documents", h.count)
	r.GET("/api/registry/owners/:owner/documents/:index", h.get)
	r.POST("/api/registry/emergency-stop", h.emergencyStop)
}

func (h *Handler) upload(c *gin.Context) {
	var req struct {
		ContentHash string `json:"contentHash"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Tags        string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := callerSub(c)
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	// Verify the hash resolves in the object store, but only once the core
	// preconditions could pass, so the pause and length errors keep their
	// documented precedence.
	if h.content != nil && h.verify && len(req.ContentHash) == registry.ContentHashLen && !h.reg.Paused() {
		exists, err := h.content.Exists(c.Request.Context(), req.ContentHash)
		if err != nil {
			logger.Warnf("content store check failed for %s: %v", req.ContentHash, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "content store unavailable"})
			return
		}
		if !exists {
			h.fail(c, "upload", registry.ErrInvalidArgument)
			return
		}
	}

	ok, err := h.reg.Upload(c.Request.Context(), caller, req.ContentHash, req.Title, req.Description, req.Tags)
	if err != nil {
		h.fail(c, "upload", err)
		return
	}
	metrics.DocumentsUploaded.Inc()
	c.JSON(http.StatusCreated, gin.H{"success": ok, "owner": caller})
}

func (h *Handler) count(c *gin.Context) {
	owner := c.Param("owner")
	n, err := h.reg.Count(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, "count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "count": n})
}

func (h *Handler) get(c *gin.Context) {
	owner := c.Param("owner")
	idx, err := strconv.ParseUint(c.Param("index"), 10, 8)
	if err != nil {
		h.fail(c, "get", registry.ErrInvalidArgument)
		return
	}
	doc, err := h.reg.Get(c.Request.Context(), owner, uint8(idx))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	resp := gin.H{
		"contentHash": doc.ContentHash,
		"title":       doc.Title,
		"description": doc.Description,
		"tags":        doc.Tags,
		"uploadedAt":  doc.UploadedAt,
	}
	if h.content != nil {
		if u, err := h.content.PresignedGetURL(c.Request.Context(), doc.ContentHash, h.presignTTL); err == nil {
			resp["contentUrl"] = u
		} else {
			logger.Warnf("presign failed for %s: %v", doc.ContentHash, err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) emergencyStop(c *gin.Context) {
	var req struct {
		Stop *bool `json:"stop"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Stop == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stop flag required"})
		return
	}
	caller := callerSub(c)
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	if err := h.reg.EmergencyStop(c.Request.Context(), caller, *req.Stop); err != nil {
		h.fail(c, "emergency_stop", err)
		return
	}
	metrics.EmergencyStops.Inc()
	if *req.Stop {
		metrics.Paused.Set(1)
	} else {
		metrics.Paused.Set(0)
	}
	c.JSON(http.StatusOK, gin.H{"paused": *req.Stop})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	metrics.OperationsRejected.WithLabelValues(op, reason(err)).Inc()
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// callerSub extracts the stable caller identifier from the verified claims
// set by the auth middleware.
func callerSub(c *gin.Context) string {
	v, ok := c.Get("claims")
	if !ok {
		return ""
	}
	cm, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	sub, _ := cm["sub"].(string)
	return sub
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrSuspended):
		return http.StatusServiceUnavailable
	case errors.Is(err, registry.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func reason(err error) string {
	switch {
	case errors.Is(err, registry.ErrSuspended):
		return "suspended"
	case errors.Is(err, registry.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, registry.ErrNotFound):
		return "not_found"
	case errors.Is(err, registry.ErrInvalidArgument):
		return "invalid_argument"
	}
	return "internal"
}
