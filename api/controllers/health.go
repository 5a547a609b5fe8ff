package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rushikeshnagarkar/balutedaar-app/api/responses"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
)

const readinessTimeout = 2 * time.Second

// Pinger is the connectivity check each backing store exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Balutedaar-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database and Redis both answer.
func HealthReady(cfg *config.Config, database, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Balutedaar-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true
		if database == nil || database.Ping(ctx) != nil {
			checks["database"] = "unreachable"
			healthy = false
		}
		if cache == nil || cache.Ping(ctx) != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": checks,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
