package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Readiness проверяет зависимости сервиса (например, ping документного хранилища).
// nil означает, что сервис готов.
type Readiness func(ctx context.Context) error

// Handler возвращает HTTP handler для health check endpoint.
// 200 {"status":"ok"} если readiness не указана или вернула nil,
// 503 {"status":"not ready","error":...} если readiness вернула ошибку.
func Handler(readiness Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := readiness(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
