package ficha

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSecaoObrigatoria indica tentativa de criar seção sem nome.
	ErrSecaoObrigatoria = errors.New("nome da seção obrigatório")
	// ErrSecaoDuplicada indica seção com nome já existente na sessão.
	ErrSecaoDuplicada = errors.New("seção já existe")
	// ErrSecaoNaoEncontrada indica referência a seção inexistente.
	ErrSecaoNaoEncontrada = errors.New("seção não encontrada")
	// ErrCampoNaoEncontrado indica índice de campo fora da seção.
	ErrCampoNaoEncontrado = errors.New("campo não encontrado")
	// ErrCampoSemNome indica campo sem nome no momento da confirmação.
	ErrCampoSemNome = errors.New("campo sem nome")
	// ErrChaveDuplicada indica dois campos com a mesma chave seção.campo.
	ErrChaveDuplicada = errors.New("campo duplicado na seção")
)

// TipoCampo classifica o comportamento de entrada de um campo.
// A inferência acontece uma única vez, ao definir ou renomear o campo.
type TipoCampo string

const (
	TipoTexto    TipoCampo = "texto"
	TipoMaquina  TipoCampo = "maquina"
	TipoCliente  TipoCampo = "cliente"
	TipoVendedor TipoCampo = "vendedor"
	TipoData     TipoCampo = "data"
)

// Campo é um item nomeado da ficha técnica. Todo valor é texto livre;
// o tipo apenas orienta a camada de apresentação (lista de referência
// ou data em vez de texto livre).
type Campo struct {
	Nome string    `json:"nome"`
	Tipo TipoCampo `json:"tipo"`
}

// Secao agrupa campos em ordem de exibição.
type Secao struct {
	Nome   string  `json:"nome"`
	Campos []Campo `json:"campos"`
}

// Estrutura é o layout congelado da ficha técnica de uma OP.
// Depois de confirmada, viaja junto com a ordem e não muda mais.
type Estrutura struct {
	Secoes []Secao `json:"secoes"`
}

// InferirTipo deriva o tipo do campo a partir do nome, por substring
// (convenção herdada do formulário original; não há tipo declarado).
func InferirTipo(nome string) TipoCampo {
	n := strings.ToLower(strings.TrimSpace(nome))
	switch {
	case strings.Contains(n, "maquina"), strings.Contains(n, "máquina"), strings.Contains(n, "equipamento"):
		return TipoMaquina
	case strings.Contains(n, "cliente"):
		return TipoCliente
	case strings.Contains(n, "vendedor"):
		return TipoVendedor
	case strings.Contains(n, "data"):
		return TipoData
	default:
		return TipoTexto
	}
}

// Chave monta a chave plana de um valor capturado: "Seção.Campo".
func Chave(secao, campo string) string {
	return secao + "." + campo
}

// Sessao é o contexto de edição de uma estrutura ainda não confirmada.
// Substitui o estado global de sessão do sistema legado: cada fluxo de
// criação/edição cria a sua e a descarta ao salvar ou cancelar.
type Sessao struct {
	secoes     []Secao
	confirmada bool
}

// NovaSessao cria sessão de edição vazia.
func NovaSessao() *Sessao {
	return &Sessao{}
}

// SessaoDe cria sessão pré-carregada com uma estrutura existente
// (reuso de layout ao lançar nova OP do mesmo equipamento).
func SessaoDe(e Estrutura) *Sessao {
	return &Sessao{secoes: clonarSecoes(e.Secoes)}
}

// AdicionarSecao acrescenta seção vazia ao final.
func (s *Sessao) AdicionarSecao(nome string) error {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return ErrSecaoObrigatoria
	}
	for _, sec := range s.secoes {
		if sec.Nome == nome {
			return ErrSecaoDuplicada
		}
	}
	s.secoes = append(s.secoes, Secao{Nome: nome})
	return nil
}

// AdicionarCampo acrescenta campo ao final da seção. O nome pode ser um
// placeholder a ser renomeado depois; o tipo é inferido imediatamente.
func (s *Sessao) AdicionarCampo(secao, nome string) error {
	sec := s.buscarSecao(secao)
	if sec == nil {
		return ErrSecaoNaoEncontrada
	}
	sec.Campos = append(sec.Campos, Campo{Nome: strings.TrimSpace(nome), Tipo: InferirTipo(nome)})
	return nil
}

// RenomearCampo troca o nome do campo e re-infere o tipo. Valores já
// capturados sob o nome antigo NÃO são migrados: ficam órfãos sob a
// chave anterior, comportamento assumido do sistema original.
func (s *Sessao) RenomearCampo(secao string, idx int, novoNome string) error {
	sec := s.buscarSecao(secao)
	if sec == nil {
		return ErrSecaoNaoEncontrada
	}
	if idx < 0 || idx >= len(sec.Campos) {
		return ErrCampoNaoEncontrado
	}
	novoNome = strings.TrimSpace(novoNome)
	sec.Campos[idx].Nome = novoNome
	sec.Campos[idx].Tipo = InferirTipo(novoNome)
	return nil
}

// RemoverCampo exclui o campo do índice informado. Valores capturados
// para a chave removida tornam-se inalcançáveis, mas não são purgados.
func (s *Sessao) RemoverCampo(secao string, idx int) error {
	sec := s.buscarSecao(secao)
	if sec == nil {
		return ErrSecaoNaoEncontrada
	}
	if idx < 0 || idx >= len(sec.Campos) {
		return ErrCampoNaoEncontrado
	}
	sec.Campos = append(sec.Campos[:idx], sec.Campos[idx+1:]...)
	return nil
}

// RemoverSecao exclui a seção inteira.
func (s *Sessao) RemoverSecao(nome string) error {
	for i, sec := range s.secoes {
		if sec.Nome == nome {
			s.secoes = append(s.secoes[:i], s.secoes[i+1:]...)
			return nil
		}
	}
	return ErrSecaoNaoEncontrada
}

// Confirmar valida e congela a estrutura. Campos sem nome e chaves
// duplicadas são rejeitados aqui (o legado tolerava ambos em silêncio e
// gerava ambiguidade na captura).
func (s *Sessao) Confirmar() (Estrutura, error) {
	for _, sec := range s.secoes {
		vistos := make(map[string]struct{}, len(sec.Campos))
		for _, c := range sec.Campos {
			if c.Nome == "" {
				return Estrutura{}, fmt.Errorf("seção %q: %w", sec.Nome, ErrCampoSemNome)
			}
			if _, ok := vistos[c.Nome]; ok {
				return Estrutura{}, fmt.Errorf("seção %q, campo %q: %w", sec.Nome, c.Nome, ErrChaveDuplicada)
			}
			vistos[c.Nome] = struct{}{}
		}
	}
	s.confirmada = true
	return Estrutura{Secoes: clonarSecoes(s.secoes)}, nil
}

// Confirmada informa se a sessão já gerou uma estrutura congelada.
func (s *Sessao) Confirmada() bool {
	return s.confirmada
}

// Secoes expõe cópia do estado atual (para renderização do rascunho).
func (s *Sessao) Secoes() []Secao {
	return clonarSecoes(s.secoes)
}

func (s *Sessao) buscarSecao(nome string) *Secao {
	for i := range s.secoes {
		if s.secoes[i].Nome == nome {
			return &s.secoes[i]
		}
	}
	return nil
}

func clonarSecoes(secoes []Secao) []Secao {
	out := make([]Secao, len(secoes))
	for i, sec := range secoes {
		campos := make([]Campo, len(sec.Campos))
		copy(campos, sec.Campos)
		out[i] = Secao{Nome: sec.Nome, Campos: campos}
	}
	return out
}

// Chaves devolve todas as chaves da estrutura na ordem de captura
// (seção a seção, campo a campo).
func (e Estrutura) Chaves() []string {
	var out []string
	for _, sec := range e.Secoes {
		for _, c := range sec.Campos {
			out = append(out, Chave(sec.Nome, c.Nome))
		}
	}
	return out
}

// TotalCampos conta os campos da estrutura inteira.
func (e Estrutura) TotalCampos() int {
	n := 0
	for _, sec := range e.Secoes {
		n += len(sec.Campos)
	}
	return n
}

// EstruturaPadrao devolve o layout inicial do formulário de OP
// (mesmos campos pré-carregados do aplicativo de fábrica).
func EstruturaPadrao() Estrutura {
	nomes := []string{"Alimentação", "Produto", "Estrutura", "Frascos", "Produção", "Bicos"}
	campos := make([]Campo, len(nomes))
	for i, n := range nomes {
		campos[i] = Campo{Nome: n, Tipo: InferirTipo(n)}
	}
	return Estrutura{Secoes: []Secao{{Nome: "Especificações", Campos: campos}}}
}
