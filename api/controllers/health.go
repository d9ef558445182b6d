package controllers

import (
	"net/http"

	"github.com/retailgenie/orchestrator/api/responses"
	"github.com/retailgenie/orchestrator/pkg/config"
	"github.com/retailgenie/orchestrator/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailGenie-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness, including the Redis connection when one is
// configured.
func HealthReady(cfg *config.Config, pinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailGenie-Env", cfg.App.Env)
		status := map[string]string{"status": "ready"}
		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
				return
			}
			status["redis"] = "ok"
		}
		responses.WriteSuccess(w, status)
	}
}
