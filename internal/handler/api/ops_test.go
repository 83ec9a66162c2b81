package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ArbPilot/internal/domain/models"
	"ArbPilot/internal/service/strategy"
	"ArbPilot/pkg/guard"
	"ArbPilot/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func newOps(redisErr error) (*OpsHandler, *strategy.Router, *guard.Breaker) {
	router := strategy.New(strategy.DefaultThresholds())
	breaker := guard.NewBreaker(2, time.Minute)
	h := NewOpsHandler(logger.Nop(), router, breaker, fakePinger{err: redisErr}, nil)
	return h, router, breaker
}

func record(t *testing.T, fn echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, fn(e.NewContext(req, rec)))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthOK(t *testing.T) {
	h, _, _ := newOps(nil)

	rec := record(t, h.Health, "/healthz")
	body := decodeBody(t, rec)
	assert.Equal(t, float64(http.StatusOK), body["status"])
}

func TestHealthRedisDown(t *testing.T) {
	h, _, _ := newOps(errors.New("connection refused"))

	rec := record(t, h.Health, "/healthz")
	body := decodeBody(t, rec)
	assert.Equal(t, float64(http.StatusServiceUnavailable), body["status"])
}

func TestBreakerEndpointReflectsState(t *testing.T) {
	h, _, breaker := newOps(nil)

	rec := record(t, h.Breaker, "/api/breaker")
	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["open"])

	breaker.Record(false)
	breaker.Record(false)

	rec = record(t, h.Breaker, "/api/breaker")
	data = decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, true, data["open"])
	assert.Equal(t, float64(2), data["failures"])
}

func TestStrategyStatsEndpoint(t *testing.T) {
	h, router, _ := newOps(nil)
	router.Decide(models.RoutingSignal{MevVulnerability: 0.9})

	rec := record(t, h.StrategyStats, "/api/strategy/stats")
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestStrategyHistoryLimit(t *testing.T) {
	h, router, _ := newOps(nil)
	for i := 0; i < 5; i++ {
		router.Decide(models.RoutingSignal{})
	}

	rec := record(t, h.StrategyHistory, "/api/strategy/history?limit=2")
	data := decodeBody(t, rec)["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestStrategyHistoryRejectsBadLimit(t *testing.T) {
	h, _, _ := newOps(nil)

	for _, raw := range []string{"zero", "0", "-3"} {
		rec := record(t, h.StrategyHistory, "/api/strategy/history?limit="+raw)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(http.StatusBadRequest), body["status"], "limit=%s", raw)

		errs := body["data"].([]interface{})
		require.Len(t, errs, 1)
		assert.Equal(t, "ERR_BAD_REQUEST", errs[0].(map[string]interface{})["code"])
	}
}
