// Package ordem concentra o ciclo de vida da ordem de produção:
// salvar (upsert por número), checklist com progresso derivado, log de
// acompanhamento append-only, anexo e exclusão.
package ordem

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fabricasc/producao/internal/ficha"
	"github.com/fabricasc/producao/internal/store"
)

const (
	// StatusEmProducao é o estado de toda ordem com progresso < 100.
	StatusEmProducao = "Em Produção"
	// StatusConcluido é atribuído exatamente quando progresso == 100.
	StatusConcluido = "Concluído"
)

var (
	// ErrNumeroObrigatorio indica salvamento sem número de OP.
	ErrNumeroObrigatorio = errors.New("número da OP obrigatório")
	// ErrMensagemObrigatoria indica registro de log sem mensagem.
	ErrMensagemObrigatoria = errors.New("mensagem obrigatória")
	// ErrMaquinaSemChecklist indica equipamento sem conjuntos cadastrados.
	ErrMaquinaSemChecklist = errors.New("máquina sem checklist cadastrado")
	// ErrMaquinaObrigatoria indica modelo de ficha sem nome de máquina.
	ErrMaquinaObrigatoria = errors.New("nome da máquina obrigatório")
)

// RemovedorAnexo apaga o arquivo físico do anexo ao excluir a ordem.
type RemovedorAnexo interface {
	Remover(nome string) error
}

// Service reúne as regras de negócio das ordens.
type Service struct {
	store  store.RecordStore
	anexos RemovedorAnexo
	agora  func() time.Time
}

// NewService cria o serviço. anexos pode ser nil quando não há backend
// de arquivos configurado.
func NewService(st store.RecordStore, anexos RemovedorAnexo) *Service {
	return &Service{store: st, anexos: anexos, agora: time.Now}
}

// Entrada carrega os dados do formulário de OP: cabeçalho fixo mais a
// estrutura congelada e os valores capturados da ficha técnica.
type Entrada struct {
	NumeroOP         string            `json:"numero_op"`
	Equipamento      string            `json:"equipamento"`
	Cliente          string            `json:"cliente"`
	CNPJ             string            `json:"cnpj"`
	DataOP           string            `json:"data_op"`
	DataEntrega      string            `json:"data_entrega"`
	Vendedor         string            `json:"vendedor"`
	ResponsavelSetor string            `json:"responsavel_setor"`
	EnderecoEntrega  string            `json:"endereco_entrega"`
	Assistencia      string            `json:"assistencia"`
	Estrutura        ficha.Estrutura   `json:"estrutura"`
	Valores          map[string]string `json:"valores"`
}

// Salvar faz o upsert da ordem por numero_op: número já existente tem
// a linha inteira substituída (last write wins, sem merge). A captura
// passa pela ficha para garantir uma entrada por campo, em ordem.
func (s *Service) Salvar(ctx context.Context, in Entrada) (*store.Ordem, error) {
	in.NumeroOP = strings.TrimSpace(in.NumeroOP)
	if in.NumeroOP == "" {
		return nil, ErrNumeroObrigatorio
	}

	// a estrutura chega do cliente; revalida antes de congelar
	estrutura, err := ficha.SessaoDe(in.Estrutura).Confirmar()
	if err != nil {
		return nil, err
	}
	specs, err := ficha.Capturar(estrutura, ficha.ProvedorMapa(in.Valores))
	if err != nil {
		return nil, err
	}

	agora := s.agora()
	o := store.Ordem{
		NumeroOP:         in.NumeroOP,
		Equipamento:      strings.TrimSpace(in.Equipamento),
		Cliente:          strings.TrimSpace(in.Cliente),
		CNPJ:             strings.TrimSpace(in.CNPJ),
		DataOP:           strings.TrimSpace(in.DataOP),
		DataEntrega:      strings.TrimSpace(in.DataEntrega),
		Vendedor:         strings.TrimSpace(in.Vendedor),
		ResponsavelSetor: strings.TrimSpace(in.ResponsavelSetor),
		EnderecoEntrega:  strings.TrimSpace(in.EnderecoEntrega),
		Assistencia:      strings.TrimSpace(in.Assistencia),
		Especificacoes:   specs,
		Status:           StatusEmProducao,
		ChecksConcluidos: []string{},
		Log:              []store.RegistroLog{},
		CriadoEm:         agora,
		AtualizadoEm:     agora,
	}

	// regravação: checklist, log, anexo e progresso atuais são os
	// únicos campos carregados da linha anterior (o resto é do caller)
	if atual, err := s.store.GetOrdem(ctx, in.NumeroOP); err == nil {
		o.Progresso = atual.Progresso
		o.Status = statusDoProgresso(atual.Progresso)
		o.ChecksConcluidos = atual.ChecksConcluidos
		o.Log = atual.Log
		o.Anexo = atual.Anexo
		o.CriadoEm = atual.CriadoEm
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := s.store.UpsertOrdem(ctx, o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Buscar carrega a ordem para edição: a estrutura congelada e os
// valores capturados voltam prontos para repovoar o formulário.
func (s *Service) Buscar(ctx context.Context, numero string) (*store.Ordem, error) {
	return s.store.GetOrdem(ctx, numero)
}

// Listar devolve todas as ordens, mais recentes primeiro.
func (s *Service) Listar(ctx context.Context) ([]store.Ordem, error) {
	return s.store.ListOrdens(ctx)
}

// AtualizarChecklist recebe os conjuntos concluídos, intersecta com o
// checklist da máquina da ordem e recalcula progresso e status:
// progresso = round(100*k/N); status Concluído sse progresso == 100.
func (s *Service) AtualizarChecklist(ctx context.Context, numero string, concluidos []string) (*store.Ordem, error) {
	o, err := s.store.GetOrdem(ctx, numero)
	if err != nil {
		return nil, err
	}

	m, err := s.store.GetMaquina(ctx, o.Equipamento)
	if err != nil {
		return nil, err
	}
	if len(m.Conjuntos) == 0 {
		return nil, ErrMaquinaSemChecklist
	}

	marcados := make(map[string]struct{}, len(concluidos))
	for _, c := range concluidos {
		marcados[strings.TrimSpace(c)] = struct{}{}
	}

	// interseção preservando a ordem do modelo da máquina
	feitos := make([]string, 0, len(m.Conjuntos))
	for _, conjunto := range m.Conjuntos {
		if _, ok := marcados[conjunto]; ok {
			feitos = append(feitos, conjunto)
		}
	}

	o.ChecksConcluidos = feitos
	o.Progresso = int(math.Round(100 * float64(len(feitos)) / float64(len(m.Conjuntos))))
	o.Status = statusDoProgresso(o.Progresso)
	o.AtualizadoEm = s.agora()

	if err := s.store.UpsertOrdem(ctx, *o); err != nil {
		return nil, err
	}
	return o, nil
}

// Checklist devolve o modelo da máquina da ordem e o que já foi
// concluído, para renderização.
func (s *Service) Checklist(ctx context.Context, numero string) (modelo, concluidos []string, err error) {
	o, err := s.store.GetOrdem(ctx, numero)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.store.GetMaquina(ctx, o.Equipamento)
	if err != nil {
		return nil, nil, err
	}
	return m.Conjuntos, o.ChecksConcluidos, nil
}

// AnexarLog acrescenta uma entrada ao histórico da ordem com carimbo
// do servidor. Entradas anteriores nunca são alteradas.
func (s *Service) AnexarLog(ctx context.Context, numero, autor, cargoDestino, mensagem string) (*store.RegistroLog, error) {
	mensagem = strings.TrimSpace(mensagem)
	if mensagem == "" {
		return nil, ErrMensagemObrigatoria
	}

	o, err := s.store.GetOrdem(ctx, numero)
	if err != nil {
		return nil, err
	}

	registro := store.RegistroLog{
		ID:           uuid.New(),
		Autor:        autor,
		CargoDestino: cargoDestino,
		Mensagem:     mensagem,
		CriadoEm:     s.agora(),
	}
	o.Log = append(o.Log, registro)
	o.AtualizadoEm = registro.CriadoEm

	if err := s.store.UpsertOrdem(ctx, *o); err != nil {
		return nil, err
	}
	return &registro, nil
}

// Excluir remove a ordem em definitivo (sem lixeira). O arquivo de
// anexo é removido em melhor esforço.
func (s *Service) Excluir(ctx context.Context, numero string) error {
	o, err := s.store.GetOrdem(ctx, numero)
	if err != nil {
		return err
	}
	if err := s.store.DeleteOrdem(ctx, numero); err != nil {
		return err
	}
	if o.Anexo != "" && s.anexos != nil {
		if err := s.anexos.Remover(o.Anexo); err != nil {
			log.Warn().Err(err).Str("numero_op", numero).Msg("falha ao remover anexo da ordem excluída")
		}
	}
	return nil
}

// BuscarModelo carrega o layout de ficha salvo para a máquina, usado
// como atalho ao lançar uma OP nova do mesmo equipamento.
func (s *Service) BuscarModelo(ctx context.Context, maquina string) (*store.Modelo, error) {
	return s.store.GetModelo(ctx, maquina)
}

// SalvarModelo valida e grava o layout de ficha da máquina (um por
// máquina; regravar substitui).
func (s *Service) SalvarModelo(ctx context.Context, maquina string, estrutura ficha.Estrutura) (*store.Modelo, error) {
	maquina = strings.TrimSpace(maquina)
	if maquina == "" {
		return nil, ErrMaquinaObrigatoria
	}
	congelada, err := ficha.SessaoDe(estrutura).Confirmar()
	if err != nil {
		return nil, err
	}
	m := store.Modelo{Maquina: maquina, Estrutura: congelada}
	if err := s.store.UpsertModelo(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ExcluirModelo remove o layout salvo da máquina.
func (s *Service) ExcluirModelo(ctx context.Context, maquina string) error {
	return s.store.DeleteModelo(ctx, maquina)
}

// DefinirAnexo grava a referência do arquivo anexado à ordem.
func (s *Service) DefinirAnexo(ctx context.Context, numero, nomeArquivo string) error {
	o, err := s.store.GetOrdem(ctx, numero)
	if err != nil {
		return err
	}
	o.Anexo = nomeArquivo
	o.AtualizadoEm = s.agora()
	return s.store.UpsertOrdem(ctx, *o)
}

// RemoverAnexo limpa a referência e apaga o arquivo.
func (s *Service) RemoverAnexo(ctx context.Context, numero string) error {
	o, err := s.store.GetOrdem(ctx, numero)
	if err != nil {
		return err
	}
	nome := o.Anexo
	o.Anexo = ""
	o.AtualizadoEm = s.agora()
	if err := s.store.UpsertOrdem(ctx, *o); err != nil {
		return err
	}
	if nome != "" && s.anexos != nil {
		if err := s.anexos.Remover(nome); err != nil {
			log.Warn().Err(err).Str("numero_op", numero).Msg("falha ao apagar arquivo de anexo")
		}
	}
	return nil
}

func statusDoProgresso(p int) string {
	if p == 100 {
		return StatusConcluido
	}
	return StatusEmProducao
}
