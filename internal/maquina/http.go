package maquina

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/fabricasc/producao/internal/http/middleware"
	"github.com/fabricasc/producao/internal/store"
)

// Handler expõe o cadastro de máquinas. Toda a área é restrita ao
// nível ADM (tela de configuração do sistema original).
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/maquinas", func(r chi.Router) {
		r.Get("/", h.handleListar)

		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.RequireNivel("ADM"))
			r.Post("/", h.handleSalvar)
			r.Put("/{nome}", h.handleSalvar)
			r.Delete("/{nome}", h.handleExcluir)
		})
	})
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	maquinas, err := h.service.Listar(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"maquinas": maquinas})
}

func (h *Handler) handleSalvar(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nome      string   `json:"nome"`
		Conjuntos []string `json:"conjuntos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}
	if nome := chi.URLParam(r, "nome"); nome != "" {
		body.Nome = nome
	}

	m, err := h.service.Salvar(r.Context(), body.Nome, body.Conjuntos)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"maquina": m})
}

func (h *Handler) handleExcluir(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Excluir(r.Context(), chi.URLParam(r, "nome")); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "EXCLUIDA"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "máquina não encontrada", nil)
	case errors.Is(err, ErrNomeObrigatorio):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("maquina handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
