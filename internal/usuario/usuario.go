// Package usuario administra operadores e líderes de setor. O nível
// de permissão é derivado do cargo, regra herdada do cadastro antigo.
package usuario

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fabricasc/producao/internal/auth"
	"github.com/fabricasc/producao/internal/store"
)

const (
	NivelADM   = "ADM"
	NivelLider = "LIDER"
	NivelUser  = "USER"
)

var (
	// ErrLoginObrigatorio indica cadastro sem login.
	ErrLoginObrigatorio = errors.New("login obrigatório")
	// ErrSenhaObrigatoria indica cadastro sem senha.
	ErrSenhaObrigatoria = errors.New("senha obrigatória")
	// ErrLoginEmUso indica tentativa de cadastrar login já existente
	// para o mesmo cargo.
	ErrLoginEmUso = errors.New("login já cadastrado para este cargo")
	// ErrNomeObrigatorio indica cadastro de líder sem nome.
	ErrNomeObrigatorio = errors.New("nome do líder obrigatório")
	// ErrUltimoAdmin protege o último administrador ativo contra
	// exclusão ou desativação (ninguém ficaria com acesso às telas
	// de configuração).
	ErrUltimoAdmin = errors.New("último administrador ativo não pode ser removido")
)

// Service reúne as regras de cadastro de usuários e líderes.
type Service struct {
	store store.RecordStore
	agora func() time.Time
}

func NewService(st store.RecordStore) *Service {
	return &Service{store: st, agora: time.Now}
}

// DerivarNivel traduz o cargo em nível de permissão: PCP administra,
// cargo de líder enxerga as telas de liderança, o resto opera.
func DerivarNivel(cargo string) string {
	c := strings.ToUpper(strings.TrimSpace(cargo))
	switch {
	case c == "PCP" || c == NivelADM:
		return NivelADM
	case strings.Contains(c, "LIDER") || strings.Contains(c, "LÍDER"):
		return NivelLider
	default:
		return NivelUser
	}
}

// Entrada carrega os dados do formulário de usuário.
type Entrada struct {
	Login string `json:"login"`
	Senha string `json:"senha"`
	Cargo string `json:"cargo"`
}

// Criar cadastra um usuário novo com a senha protegida por Argon2id.
func (s *Service) Criar(ctx context.Context, in Entrada) (*store.Usuario, error) {
	in.Login = strings.TrimSpace(in.Login)
	in.Cargo = strings.ToUpper(strings.TrimSpace(in.Cargo))
	if in.Login == "" {
		return nil, ErrLoginObrigatorio
	}
	if strings.TrimSpace(in.Senha) == "" {
		return nil, ErrSenhaObrigatoria
	}

	if _, err := s.store.GetUsuarioPorLogin(ctx, in.Login, in.Cargo); err == nil {
		return nil, ErrLoginEmUso
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.Hash(in.Senha)
	if err != nil {
		return nil, err
	}

	u := store.Usuario{
		ID:        uuid.New(),
		Login:     in.Login,
		SenhaHash: hash,
		Cargo:     in.Cargo,
		Nivel:     DerivarNivel(in.Cargo),
		Ativo:     true,
		CriadoEm:  s.agora(),
	}
	if err := s.store.UpsertUsuario(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Atualizar altera login, cargo e, se informada, a senha. O nível é
// rederivado do cargo novo.
func (s *Service) Atualizar(ctx context.Context, id uuid.UUID, in Entrada) (*store.Usuario, error) {
	u, err := s.store.GetUsuario(ctx, id)
	if err != nil {
		return nil, err
	}

	if login := strings.TrimSpace(in.Login); login != "" {
		u.Login = login
	}
	if cargo := strings.ToUpper(strings.TrimSpace(in.Cargo)); cargo != "" {
		u.Cargo = cargo
		u.Nivel = DerivarNivel(cargo)
	}
	if senha := strings.TrimSpace(in.Senha); senha != "" {
		hash, err := auth.Hash(senha)
		if err != nil {
			return nil, err
		}
		u.SenhaHash = hash
	}

	if err := s.store.UpsertUsuario(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// AlternarAtivo liga ou desliga o acesso sem apagar o cadastro.
func (s *Service) AlternarAtivo(ctx context.Context, id uuid.UUID) (*store.Usuario, error) {
	u, err := s.store.GetUsuario(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Ativo && u.Nivel == NivelADM {
		ultimo, err := s.ultimoAdminAtivo(ctx, id)
		if err != nil {
			return nil, err
		}
		if ultimo {
			return nil, ErrUltimoAdmin
		}
	}
	u.Ativo = !u.Ativo
	if err := s.store.UpsertUsuario(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// Listar devolve todos os usuários cadastrados (sem hash de senha na
// serialização; o campo é json:"-").
func (s *Service) Listar(ctx context.Context) ([]store.Usuario, error) {
	return s.store.ListUsuarios(ctx)
}

// Excluir remove o usuário em definitivo.
func (s *Service) Excluir(ctx context.Context, id uuid.UUID) error {
	u, err := s.store.GetUsuario(ctx, id)
	if err != nil {
		return err
	}
	if u.Ativo && u.Nivel == NivelADM {
		ultimo, err := s.ultimoAdminAtivo(ctx, id)
		if err != nil {
			return err
		}
		if ultimo {
			return ErrUltimoAdmin
		}
	}
	return s.store.DeleteUsuario(ctx, id)
}

// ultimoAdminAtivo verifica se não existe outro ADM ativo além do id.
func (s *Service) ultimoAdminAtivo(ctx context.Context, id uuid.UUID) (bool, error) {
	todos, err := s.store.ListUsuarios(ctx)
	if err != nil {
		return false, err
	}
	for _, outro := range todos {
		if outro.ID != id && outro.Ativo && outro.Nivel == NivelADM {
			return false, nil
		}
	}
	return true, nil
}

// ListarLideres devolve os líderes de setor cadastrados.
func (s *Service) ListarLideres(ctx context.Context) ([]store.Lider, error) {
	return s.store.ListLideres(ctx)
}

// SalvarLider cadastra um líder; nomes são guardados em maiúsculas,
// como o sistema antigo fazia.
func (s *Service) SalvarLider(ctx context.Context, nome string) (*store.Lider, error) {
	nome = strings.ToUpper(strings.TrimSpace(nome))
	if nome == "" {
		return nil, ErrNomeObrigatorio
	}
	l := store.Lider{Nome: nome}
	if err := s.store.UpsertLider(ctx, l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ExcluirLider remove o líder do cadastro.
func (s *Service) ExcluirLider(ctx context.Context, nome string) error {
	return s.store.DeleteLider(ctx, strings.ToUpper(strings.TrimSpace(nome)))
}
