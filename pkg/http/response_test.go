package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performJSON(t *testing.T, fn func(c echo.Context) error) map[string]interface{} {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, fn(e.NewContext(req, rec)))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAppErrorResponseCarriesStatusAndCode(t *testing.T) {
	body := performJSON(t, func(c echo.Context) error {
		return AppErrorResponse(c, BadRequestError("limit must be positive"))
	})

	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	errs := body["data"].([]interface{})
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "ERR_BAD_REQUEST", first["code"])
	assert.Equal(t, "limit must be positive", first["message"])
}

func TestAppErrorResponseFallsBackTo500(t *testing.T) {
	body := performJSON(t, func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("unexpected"))
	})
	assert.Equal(t, float64(http.StatusInternalServerError), body["status"])
}

func TestSuccessResponseEnvelope(t *testing.T) {
	body := performJSON(t, func(c echo.Context) error {
		return SuccessResponse(c, map[string]int{"total": 3})
	})

	assert.Equal(t, float64(http.StatusOK), body["status"])
	assert.Equal(t, "OK", body["message"])
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["total"])
}
