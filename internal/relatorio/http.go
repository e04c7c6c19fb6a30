package relatorio

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fabricasc/producao/internal/store"
)

// Handler serve o painel e os exports. O painel é aberto a qualquer
// autenticado (era a tela inicial dos líderes).
type Handler struct {
	store store.RecordStore
}

func NewHandler(st store.RecordStore) *Handler {
	return &Handler{store: st}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/relatorio", func(r chi.Router) {
		r.Get("/painel", h.handlePainel)
		r.Get("/excel", h.handleExcel)
	})
}

func (h *Handler) handlePainel(w http.ResponseWriter, r *http.Request) {
	ordens, err := h.store.ListOrdens(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"painel": Montar(ordens)})
}

func (h *Handler) handleExcel(w http.ResponseWriter, r *http.Request) {
	ordens, err := h.store.ListOrdens(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	conteudo, err := GerarExcel(Montar(ordens))
	if err != nil {
		writeInternalError(w, err)
		return
	}

	nome := "painel_" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+nome+`"`)
	_, _ = w.Write(conteudo)
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("relatorio handler error")
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
