package ordem

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fabricasc/producao/internal/anexo"
	"github.com/fabricasc/producao/internal/ficha"
	httpmiddleware "github.com/fabricasc/producao/internal/http/middleware"
	"github.com/fabricasc/producao/internal/store"
)

// GeradorPDF renderiza a ficha completa de uma ordem.
type GeradorPDF func(store.Ordem) ([]byte, error)

// Handler orquestra as rotas de ordem de produção.
type Handler struct {
	service  *Service
	anexos   anexo.Armazenador
	gerarPDF GeradorPDF
}

// NewHandler cria o handler. anexos pode ser nil; as rotas de anexo
// respondem 503 nesse caso.
func NewHandler(service *Service, anexos anexo.Armazenador, gerarPDF GeradorPDF) *Handler {
	return &Handler{service: service, anexos: anexos, gerarPDF: gerarPDF}
}

// RegisterRoutes registra as rotas sob /ordens. Leitura é liberada a
// qualquer autenticado; mutação exige nível ADM ou LIDER.
func (h *Handler) RegisterRoutes(r chi.Router) {
	// layout inicial da ficha técnica para o formulário de OP nova
	r.Get("/ficha/padrao", h.handleFichaPadrao)

	// layouts salvos por máquina, reaproveitados ao lançar nova OP
	r.Get("/ficha/modelos/{maquina}", h.handleBuscarModelo)
	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.RequireNivel("ADM", "LIDER"))
		r.Put("/ficha/modelos/{maquina}", h.handleSalvarModelo)
		r.Delete("/ficha/modelos/{maquina}", h.handleExcluirModelo)
	})

	r.Route("/ordens", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Get("/{numero}", h.handleBuscar)
		r.Get("/{numero}/checklist", h.handleChecklist)
		r.Get("/{numero}/log", h.handleListarLog)
		r.Get("/{numero}/anexo", h.handleBaixarAnexo)
		r.Get("/{numero}/pdf", h.handlePDF)

		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.RequireNivel("ADM", "LIDER"))
			r.Post("/", h.handleSalvar)
			r.Put("/{numero}", h.handleSalvar)
			r.Delete("/{numero}", h.handleExcluir)
			r.Post("/{numero}/checklist", h.handleAtualizarChecklist)
			r.Post("/{numero}/log", h.handleAnexarLog)
			r.Post("/{numero}/anexo", h.handleEnviarAnexo)
			r.Delete("/{numero}/anexo", h.handleRemoverAnexo)
		})
	})
}

// itemLista é a ordem enriquecida com o alerta de prazo da listagem.
type itemLista struct {
	store.Ordem
	Alerta    Alerta `json:"alerta"`
	DiasPrazo int    `json:"dias_prazo"`
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ordens, err := h.service.Listar(ctx)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	hoje := time.Now()
	itens := make([]itemLista, 0, len(ordens))
	for _, o := range ordens {
		alerta, dias := ClassificarPrazo(o.DataEntrega, hoje)
		itens = append(itens, itemLista{Ordem: o, Alerta: alerta, DiasPrazo: dias})
	}

	logRequest(ctx, "GET /ordens", start)
	writeJSON(w, http.StatusOK, map[string]any{"ordens": itens})
}

func (h *Handler) handleFichaPadrao(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"estrutura": ficha.EstruturaPadrao()})
}

func (h *Handler) handleBuscarModelo(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.BuscarModelo(r.Context(), chi.URLParam(r, "maquina"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modelo": m})
}

func (h *Handler) handleSalvarModelo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Estrutura ficha.Estrutura `json:"estrutura"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}

	m, err := h.service.SalvarModelo(r.Context(), chi.URLParam(r, "maquina"), body.Estrutura)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modelo": m})
}

func (h *Handler) handleExcluirModelo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ExcluirModelo(r.Context(), chi.URLParam(r, "maquina")); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "EXCLUIDO"})
}

func (h *Handler) handleBuscar(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Buscar(r.Context(), chi.URLParam(r, "numero"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ordem": o})
}

func (h *Handler) handleSalvar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var in Entrada
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}
	if numero := chi.URLParam(r, "numero"); numero != "" {
		in.NumeroOP = numero
	}

	o, err := h.service.Salvar(ctx, in)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, r.Method+" /ordens", start)
	writeJSON(w, http.StatusOK, map[string]any{"ordem": o})
}

func (h *Handler) handleExcluir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	numero := chi.URLParam(r, "numero")

	if err := h.service.Excluir(ctx, numero); err != nil {
		handleDomainError(w, err)
		return
	}

	log.Ctx(ctx).Info().Str("numero_op", numero).Str("login", httpmiddleware.GetLogin(ctx)).Msg("ordem excluída")
	writeJSON(w, http.StatusOK, map[string]string{"status": "EXCLUIDA"})
}

func (h *Handler) handleChecklist(w http.ResponseWriter, r *http.Request) {
	modelo, concluidos, err := h.service.Checklist(r.Context(), chi.URLParam(r, "numero"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modelo": modelo, "concluidos": concluidos})
}

func (h *Handler) handleAtualizarChecklist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Concluidos []string `json:"concluidos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}

	o, err := h.service.AtualizarChecklist(r.Context(), chi.URLParam(r, "numero"), body.Concluidos)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progresso": o.Progresso, "status": o.Status, "concluidos": o.ChecksConcluidos})
}

func (h *Handler) handleListarLog(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Buscar(r.Context(), chi.URLParam(r, "numero"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"log": o.Log})
}

func (h *Handler) handleAnexarLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		CargoDestino string `json:"cargo_destino"`
		Mensagem     string `json:"mensagem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}

	autor := httpmiddleware.GetLogin(ctx)
	registro, err := h.service.AnexarLog(ctx, chi.URLParam(r, "numero"), autor, body.CargoDestino, body.Mensagem)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"registro": registro})
}

func (h *Handler) handleEnviarAnexo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.anexos == nil {
		writeError(w, http.StatusServiceUnavailable, "ANEXO_INDISPONIVEL", "armazenamento de anexos não configurado", nil)
		return
	}

	numero := chi.URLParam(r, "numero")
	if _, err := h.service.Buscar(ctx, numero); err != nil {
		handleDomainError(w, err)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "upload inválido", nil)
		return
	}
	arquivo, header, err := r.FormFile("arquivo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "campo arquivo ausente", nil)
		return
	}
	defer arquivo.Close()

	nome, err := h.anexos.Salvar(numero, header.Filename, arquivo)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if err := h.service.DefinirAnexo(ctx, numero, nome); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"anexo": nome})
}

func (h *Handler) handleBaixarAnexo(w http.ResponseWriter, r *http.Request) {
	if h.anexos == nil {
		writeError(w, http.StatusServiceUnavailable, "ANEXO_INDISPONIVEL", "armazenamento de anexos não configurado", nil)
		return
	}

	o, err := h.service.Buscar(r.Context(), chi.URLParam(r, "numero"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if o.Anexo == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "ordem sem anexo", nil)
		return
	}

	conteudo, err := h.anexos.Abrir(o.Anexo)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	defer conteudo.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+o.Anexo+`"`)
	if _, err := io.Copy(w, conteudo); err != nil {
		log.Warn().Err(err).Str("numero_op", o.NumeroOP).Msg("falha ao transmitir anexo")
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.gerarPDF == nil {
		writeError(w, http.StatusServiceUnavailable, "PDF_INDISPONIVEL", "geração de PDF não configurada", nil)
		return
	}

	o, err := h.service.Buscar(r.Context(), chi.URLParam(r, "numero"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	conteudo, err := h.gerarPDF(*o)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="OP_`+o.NumeroOP+`.pdf"`)
	_, _ = w.Write(conteudo)
}

func (h *Handler) handleRemoverAnexo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoverAnexo(r.Context(), chi.URLParam(r, "numero")); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "REMOVIDO"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	case errors.Is(err, ErrNumeroObrigatorio),
		errors.Is(err, ErrMensagemObrigatoria),
		errors.Is(err, ErrMaquinaSemChecklist),
		errors.Is(err, ErrMaquinaObrigatoria),
		errors.Is(err, ficha.ErrCampoSemNome),
		errors.Is(err, ficha.ErrChaveDuplicada),
		errors.Is(err, anexo.ErrNomeObrigatorio):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, anexo.ErrNaoConfigurado):
		writeError(w, http.StatusServiceUnavailable, "ANEXO_INDISPONIVEL", "armazenamento de anexos não configurado", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("ordem handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func logRequest(ctx context.Context, label string, start time.Time) {
	logger := log.Ctx(ctx)
	if logger == nil {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Info().Str("request_id", reqID).Str("login", httpmiddleware.GetLogin(ctx)).Str("label", label).Dur("duration", time.Since(start)).Msg("ordem_request")
}

// Helpers de resposta JSON no envelope do projeto.
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
