package api

import (
	"context"
	"strconv"
	"time"

	"ArbPilot/internal/service/strategy"
	"ArbPilot/pkg/guard"
	xhttp "ArbPilot/pkg/http"
	xlogger "ArbPilot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Pinger is a health-checkable dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler exposes the read-only ops surface: liveness, breaker state, and
// routing statistics.
type OpsHandler struct {
	logger  *xlogger.Logger
	router  *strategy.Router
	breaker *guard.Breaker
	redis   Pinger
	journal Pinger // nil when the decision journal is disabled
}

func NewOpsHandler(logger *xlogger.Logger, router *strategy.Router, breaker *guard.Breaker, redis Pinger, journal Pinger) *OpsHandler {
	return &OpsHandler{
		logger:  logger,
		router:  router,
		breaker: breaker,
		redis:   redis,
		journal: journal,
	}
}

func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/strategy/stats", h.StrategyStats)
	g.GET("/strategy/history", h.StrategyHistory)
	g.GET("/breaker", h.Breaker)
}

// Health pings the infrastructure dependencies. The process is degraded, not
// down, when only the journal is unreachable.
func (h *OpsHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"redis": "ok"}
	healthy := true

	if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn("redis health check failed", xlogger.Error(err))
		status["redis"] = err.Error()
		healthy = false
	}

	if h.journal != nil {
		status["clickhouse"] = "ok"
		if err := h.journal.Ping(ctx); err != nil {
			h.logger.Warn("clickhouse health check failed", xlogger.Error(err))
			status["clickhouse"] = err.Error()
		}
	}

	if !healthy {
		return xhttp.ServiceUnavailableResponse(c, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *OpsHandler) StrategyStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.router.Stats())
}

// StrategyHistory returns the most recent routing records, newest last.
// ?limit=N caps the result, default 100.
func (h *OpsHandler) StrategyHistory(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("limit %q must be a positive integer", raw))
		}
		limit = n
	}

	history := h.router.History()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return xhttp.SuccessResponse(c, history)
}

type breakerView struct {
	Open      bool       `json:"open"`
	Failures  int        `json:"failures"`
	OpenUntil *time.Time `json:"open_until,omitempty"`
}

func (h *OpsHandler) Breaker(c echo.Context) error {
	failures, openUntil := h.breaker.State()
	view := breakerView{
		Open:     !h.breaker.CanRun(),
		Failures: failures,
	}
	if !openUntil.IsZero() {
		view.OpenUntil = &openUntil
	}
	return xhttp.SuccessResponse(c, view)
}
