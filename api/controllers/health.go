package controllers

import (
	"net/http"

	"github.com/rmoralesc/movilpos-backend/api/responses"
	"github.com/rmoralesc/movilpos-backend/pkg/config"
	"github.com/rmoralesc/movilpos-backend/pkg/db"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MovilPOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the datastore and the lock store both
// answer. A nil redis pinger means the deployment runs without locks and is
// not counted against readiness.
func HealthReady(cfg *config.Config, database db.Pinger, locks redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MovilPOS-Env", cfg.App.Env)

		if database == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database client unavailable"))
			return
		}
		if err := database.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		if locks != nil {
			if err := locks.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock store unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
