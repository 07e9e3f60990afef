package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/saastools-backend/api/responses"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SaaSTools-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis and reports 503 when either is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SaaSTools-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true
		if database == nil {
			checks["database"], healthy = "unconfigured", false
		} else if err := database.Ping(ctx); err != nil {
			checks["database"], healthy = "down", false
			if logg != nil {
				logg.Error(ctx, "health.database_down", err)
			}
		}
		if cache == nil {
			checks["redis"], healthy = "unconfigured", false
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"], healthy = "down", false
			if logg != nil {
				logg.Error(ctx, "health.redis_down", err)
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
