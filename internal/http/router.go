// Package http monta o roteador da API e os handlers de autenticação.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fabricasc/producao/internal/config"
	httpmiddleware "github.com/fabricasc/producao/internal/http/middleware"
	"github.com/fabricasc/producao/internal/maquina"
	"github.com/fabricasc/producao/internal/ordem"
	"github.com/fabricasc/producao/internal/relatorio"
	"github.com/fabricasc/producao/internal/service"
	"github.com/fabricasc/producao/internal/usuario"
)

// Deps agrupa tudo que o roteador precisa receber do main.
type Deps struct {
	Redis     *redis.Client
	Auth      *service.AuthService
	PingDB    func(context.Context) error
	Ordens    *ordem.Handler
	Maquinas  *maquina.Handler
	Usuarios  *usuario.Handler
	Relatorio *relatorio.Handler
}

// Handler concentra estado compartilhado das rotas de autenticação.
type Handler struct {
	cfg           *config.Config
	redis         *redis.Client
	authService   *service.AuthService
	pingDB        func(context.Context) error
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve o roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	h := &Handler{
		cfg:           cfg,
		redis:         deps.Redis,
		authService:   deps.Auth,
		pingDB:        deps.PingDB,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/healthz", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(deps.Auth.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		deps.Ordens.RegisterRoutes(private)
		deps.Maquinas.RegisterRoutes(private)
		deps.Usuarios.RegisterRoutes(private)
		deps.Relatorio.RegisterRoutes(private)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com o banco e o Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr error
	if h.pingDB != nil {
		dbErr = h.pingDB(ctx)
	}
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
