package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rmoralesc/movilpos-backend/api/responses"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/redis"
)

const commitGuardTTL = 7 * 24 * time.Hour

// CommitGuardStore is the slice of the redis client the guard needs.
type CommitGuardStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CommitGuardKey(kind, id string) string
}

type commitRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

// CommitGuard replays a previously stored commit response when the till
// retries with the same Idempotency-Key, so a network blip cannot sell the
// same unit twice. Requests without the header pass straight through.
func CommitGuard(store CommitGuardStore, kind string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			requestHash := base64.StdEncoding.EncodeToString(sum[:])
			guardKey := store.CommitGuardKey(kind, key)

			stored, getErr := store.Get(r.Context(), guardKey)
			switch {
			case getErr != nil && !redis.IsNil(getErr):
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "check commit guard"))
				return
			case stored != "":
				var record commitRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commit guard record"))
					return
				}
				if record.RequestHash != requestHash {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeConflict, "idempotency key reused with a different request body"))
					return
				}
				replayResponse(w, record)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// Only durable outcomes are replayable. Validation failures may
			// legitimately be retried with a corrected body under a new key.
			if rec.status != http.StatusCreated && rec.status != http.StatusMultiStatus {
				return
			}

			payload, err := json.Marshal(commitRecord{
				Status:      rec.status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				RequestHash: requestHash,
			})
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "marshal commit guard record", err)
				}
				return
			}
			if _, err := store.SetNX(r.Context(), guardKey, string(payload), commitGuardTTL); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "persist commit guard record", err)
				}
			}
		})
	}
}

func replayResponse(w http.ResponseWriter, record commitRecord) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
