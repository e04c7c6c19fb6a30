package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	httpmiddleware "github.com/fabricasc/producao/internal/http/middleware"
	"github.com/fabricasc/producao/internal/service"
)

const refreshCookieName = "refresh_token"

// Login autentica o operador por login, cargo e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Login string `json:"login"`
		Cargo string `json:"cargo"`
		Senha string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Login) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "login e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Login, payload.Cargo, payload.Senha)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona o par de tokens a partir do refresh atual.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := getRefreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh inválido", nil)
			return
		}
		if errors.Is(err, service.ErrAccountDisabled) {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao renovar sessão", nil)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token atual e limpa o cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := getRefreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me devolve a identidade presente no token de acesso.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteJSON(w, http.StatusOK, map[string]string{
		"id":    httpmiddleware.GetSubject(ctx),
		"login": httpmiddleware.GetLogin(ctx),
		"cargo": httpmiddleware.GetCargo(ctx),
		"nivel": httpmiddleware.GetNivel(ctx),
	})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, time.Now().Add(h.cfg.JWTRefreshTTL))

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"usuario":      result.Usuario,
	})
}

// getRefreshFromRequest aceita o cookie httpOnly ou, para clientes de
// API, o campo refresh_token no corpo.
func getRefreshFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.RefreshToken != "" {
		return payload.RefreshToken, nil
	}
	return "", errors.New("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
