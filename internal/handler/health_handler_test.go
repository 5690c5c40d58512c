package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/router"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName: "GEMA LMS API",
		AppEnv:  "test",
	}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, cfg.AppName, resp.Header.Get("X-Application"))

	var payload struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestMetricsEndpointExposesGradingCounters(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "GEMA LMS API"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Contains(t, string(body), "grading_lock_wait_seconds")
}

func TestHealthCheckReportsDegradedDependency(t *testing.T) {
	cfg := config.Config{AppName: "GEMA LMS API", AppEnv: "test", PassThreshold: 70}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		DisableMetrics: true,
		HealthChecks: []handler.DependencyCheck{
			{Name: "database", Check: func(context.Context) error { return nil }},
			{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
		},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Details handler.HealthResponse `json:"details"`
	}
	decodeResponse(t, resp, &payload)
	assert.False(t, payload.Success)
	assert.Equal(t, "degraded", payload.Details.Status)
	assert.Equal(t, 70, payload.Details.PassThreshold)
	assert.Equal(t, "ok", payload.Details.Dependencies["database"])
	assert.Equal(t, "connection refused", payload.Details.Dependencies["redis"])
}
