package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fabricasc/producao/internal/auth"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyLogin   contextKey = "login"
	ContextKeyCargo   contextKey = "cargo"
	ContextKeyNivel   contextKey = "nivel"
)

// Auth valida o JWT de acesso e injeta a identidade no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyLogin, claims.Login)
			ctx = context.WithValue(ctx, ContextKeyCargo, claims.Cargo)
			ctx = context.WithValue(ctx, ContextKeyNivel, claims.Nivel)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o id do usuário autenticado.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetLogin recupera o login do usuário autenticado.
func GetLogin(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyLogin).(string)
	return val
}

// GetCargo recupera o cargo do usuário autenticado.
func GetCargo(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyCargo).(string)
	return val
}

// GetNivel recupera o nível de permissão (ADM, LIDER ou USER).
func GetNivel(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyNivel).(string)
	return val
}

// RequireNivel garante que o usuário tenha um dos níveis informados.
// A checagem acontece no servidor; o sistema antigo apenas escondia
// os botões no cliente.
func RequireNivel(niveis ...string) func(http.Handler) http.Handler {
	normalizados := make([]string, 0, len(niveis))
	for _, n := range niveis {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n != "" {
			normalizados = append(normalizados, n)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nivel := strings.ToUpper(GetNivel(r.Context()))
			for _, n := range normalizados {
				if nivel == n {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
