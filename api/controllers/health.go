package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dkwapong/storefront-backend/api/responses"
	"github.com/dkwapong/storefront-backend/pkg/config"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/dkwapong/storefront-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing dependencies and reports per-dependency status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, imagesP pinger) http.HandlerFunc {
	deps := []struct {
		name string
		dep  pinger
	}{
		{"database", dbP},
		{"redis", redisP},
		{"image_store", imagesP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := map[string]string{}
		healthy := true
		for _, entry := range deps {
			if entry.dep == nil {
				continue
			}
			if err := entry.dep.Ping(ctx); err != nil {
				healthy = false
				statuses[entry.name] = "unavailable"
				if logg != nil {
					logCtx := logg.WithField(ctx, "dependency", entry.name)
					logg.Error(logCtx, "readiness.check_failed", err)
				}
				continue
			}
			statuses[entry.name] = "ok"
		}

		if !healthy {
			responses.WriteError(ctx, nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(statuses))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": statuses})
	}
}
