package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readiness depends on: the pgx pool, the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps           map[string]Pinger
	isShuttingDown func() bool
	timeout        time.Duration
}

// create a new instance of the health handler. isShuttingDown may be nil.
func NewHealthHandler(deps map[string]Pinger, isShuttingDown func() bool) *HealthHandler {
	if isShuttingDown == nil {
		isShuttingDown = func() bool { return false }
	}

	return &HealthHandler{deps: deps, isShuttingDown: isShuttingDown, timeout: time.Second}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz is 503 while draining or while any dependency fails its ping.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(gin.H, len(names))
	ready := true

	for _, name := range names {
		if err := h.deps[name].Ping(cctx); err != nil {
			checks[name] = "down"
			ready = false
			continue
		}
		checks[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
