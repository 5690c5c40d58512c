package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck probes one backing store for the health endpoint.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Service       string            `json:"service"`
	Environment   string            `json:"environment"`
	PassThreshold int               `json:"passThreshold"`
	Dependencies  map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck returns a handler that reports application health. Any failing
// dependency turns the status into "degraded" with a 503.
func HealthCheck(cfg config.Config, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			PassThreshold: cfg.PassThreshold,
		}

		if len(checks) > 0 {
			payload.Dependencies = make(map[string]string, len(checks))
			ctx, cancel := context.WithTimeout(c.UserContext(), dependencyCheckTimeout)
			defer cancel()

			for _, check := range checks {
				if err := check.Check(ctx); err != nil {
					payload.Status = "degraded"
					payload.Dependencies[check.Name] = err.Error()
					continue
				}
				payload.Dependencies[check.Name] = "ok"
			}
		}

		if payload.Status != "ok" {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
