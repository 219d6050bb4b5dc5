package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/storeops-dev/backoffice-backend/api/responses"
	"github.com/storeops-dev/backoffice-backend/pkg/config"
	"github.com/storeops-dev/backoffice-backend/pkg/db"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency with a short deadline. Any failed ping
// answers 503 with the per-dependency breakdown.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checkPing(ctx, "db", pingFn(dbP), checks, &healthy)
		checkPing(ctx, "redis", pingRedisFn(redisP), checks, &healthy)

		w.Header().Set("X-Backoffice-Env", cfg.App.Env)
		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			if logg != nil {
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"checks": checks}), "readiness.degraded")
			}
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"status": overall, "checks": checks})
	}
}

func pingFn(p db.Pinger) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.Ping
}

func pingRedisFn(p redis.Pinger) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.Ping
}

func checkPing(ctx context.Context, name string, ping func(context.Context) error, checks map[string]string, healthy *bool) {
	if ping == nil {
		checks[name] = "skipped"
		return
	}
	if err := ping(ctx); err != nil {
		checks[name] = "down"
		*healthy = false
		return
	}
	checks[name] = "up"
}
