// Package dashboard is the read-only HTTP+websocket surface over pipeline
// state (spec §6): positions, signals, and health, plus a live broadcast
// feed. Adapted from internal/api/routes.go's SetupRouter/CORS shape and
// internal/api/websocket.go's Hub; internal/api/auth.go is dropped per spec
// Non-goal "authentication or multi-tenant isolation."
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scfnet/scf-engine/internal/alerts"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/sirupsen/logrus"
)

// Handler holds the dependencies every dashboard route needs.
type Handler struct {
	store   *store.Store
	alerts  *alerts.Manager
	hub     *Hub
	log     *logrus.Entry
}

// NewHandler builds a dashboard Handler and wires its Hub as the alert
// manager's broadcast sink.
func NewHandler(st *store.Store, am *alerts.Manager, log *logrus.Entry) *Handler {
	hub := NewHub(log)
	am.SetBroadcast(hub.Broadcast)
	return &Handler{store: st, alerts: am, hub: hub, log: log}
}

// SetupRouter builds the gin engine with CORS, rate limiting, and all routes.
func (h *Handler) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	limiter := newRateLimiter(10, 30)
	r.Use(limiter.Middleware())

	r.GET("/positions", h.listPositions)
	r.GET("/signals", h.listSignals)
	r.GET("/health", h.health)
	r.GET("/ws", func(c *gin.Context) { h.hub.ServeWS(c.Writer, c.Request) })

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) listPositions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	positions, err := h.store.ListPositions(ctx, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (h *Handler) listSignals(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	signals, err := h.store.ListSignals(ctx, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Hub exposes the handler's broadcast hub for wiring into the supervisor's
// shutdown sequence, if ever needed.
func (h *Handler) Hub() *Hub { return h.hub }
