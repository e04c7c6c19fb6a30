package usuario

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/fabricasc/producao/internal/http/middleware"
	"github.com/fabricasc/producao/internal/store"
)

// Handler expõe a administração de usuários e líderes, restrita ao
// nível ADM.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.RequireNivel("ADM"))

		r.Route("/usuarios", func(r chi.Router) {
			r.Get("/", h.handleListar)
			r.Post("/", h.handleCriar)
			r.Put("/{id}", h.handleAtualizar)
			r.Post("/{id}/ativo", h.handleAlternarAtivo)
			r.Delete("/{id}", h.handleExcluir)
		})

		r.Route("/lideres", func(r chi.Router) {
			r.Get("/", h.handleListarLideres)
			r.Post("/", h.handleSalvarLider)
			r.Delete("/{nome}", h.handleExcluirLider)
		})
	})
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	usuarios, err := h.service.Listar(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usuarios": usuarios})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	var in Entrada
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}

	u, err := h.service.Criar(r.Context(), in)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	log.Ctx(r.Context()).Info().Str("login", u.Login).Str("cargo", u.Cargo).Msg("usuário criado")
	writeJSON(w, http.StatusCreated, map[string]any{"usuario": u})
}

func (h *Handler) handleAtualizar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var in Entrada
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}

	u, err := h.service.Atualizar(r.Context(), id, in)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usuario": u})
}

func (h *Handler) handleAlternarAtivo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	u, err := h.service.AlternarAtivo(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usuario": u})
}

func (h *Handler) handleExcluir(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.service.Excluir(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "EXCLUIDO"})
}

func (h *Handler) handleListarLideres(w http.ResponseWriter, r *http.Request) {
	lideres, err := h.service.ListarLideres(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lideres": lideres})
}

func (h *Handler) handleSalvarLider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}

	l, err := h.service.SalvarLider(r.Context(), body.Nome)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"lider": l})
}

func (h *Handler) handleExcluirLider(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ExcluirLider(r.Context(), chi.URLParam(r, "nome")); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "EXCLUIDO"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	case errors.Is(err, ErrLoginEmUso), errors.Is(err, ErrUltimoAdmin):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrLoginObrigatorio),
		errors.Is(err, ErrSenhaObrigatoria),
		errors.Is(err, ErrNomeObrigatorio):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("usuario handler error")
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
