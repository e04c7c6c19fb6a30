package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Logging escreve logs estruturados por requisição.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		event := log.Info().Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", ww.Status()).Dur("duration", time.Since(start))

		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			event = event.Str("request_id", reqID)
		}
		if login := GetLogin(r.Context()); login != "" {
			event = event.Str("login", login)
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			event = event.Str("ip", ip)
		} else {
			event = event.Str("ip", r.RemoteAddr)
		}

		event.Msg("http_request")
	})
}
