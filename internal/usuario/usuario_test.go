package usuario

import (
	"context"
	"errors"
	"testing"

	"github.com/fabricasc/producao/internal/store"
	"github.com/fabricasc/producao/internal/store/memory"
)

func TestDerivarNivel(t *testing.T) {
	casos := []struct {
		cargo string
		quer  string
	}{
		{"PCP", NivelADM},
		{"pcp", NivelADM},
		{"ADM", NivelADM},
		{"LIDER MONTAGEM", NivelLider},
		{"Líder Elétrica", NivelLider},
		{"MONTADOR", NivelUser},
		{"", NivelUser},
	}
	for _, c := range casos {
		if got := DerivarNivel(c.cargo); got != c.quer {
			t.Errorf("DerivarNivel(%q) = %q, quer %q", c.cargo, got, c.quer)
		}
	}
}

func TestCriarValidaEHasheia(t *testing.T) {
	s := NewService(memory.New())
	ctx := context.Background()

	if _, err := s.Criar(ctx, Entrada{Senha: "x", Cargo: "PCP"}); !errors.Is(err, ErrLoginObrigatorio) {
		t.Fatalf("sem login: err = %v", err)
	}
	if _, err := s.Criar(ctx, Entrada{Login: "ana", Cargo: "PCP"}); !errors.Is(err, ErrSenhaObrigatoria) {
		t.Fatalf("sem senha: err = %v", err)
	}

	u, err := s.Criar(ctx, Entrada{Login: "ana", Senha: "segredo123", Cargo: "pcp"})
	if err != nil {
		t.Fatalf("Criar: %v", err)
	}
	if u.SenhaHash == "segredo123" || u.SenhaHash == "" {
		t.Fatal("senha deveria estar hasheada")
	}
	if u.Cargo != "PCP" || u.Nivel != NivelADM {
		t.Fatalf("cargo/nível errados: %q/%q", u.Cargo, u.Nivel)
	}
	if !u.Ativo {
		t.Fatal("usuário novo deveria nascer ativo")
	}
}

func TestCriarRejeitaLoginDuplicadoNoMesmoCargo(t *testing.T) {
	s := NewService(memory.New())
	ctx := context.Background()

	if _, err := s.Criar(ctx, Entrada{Login: "ana", Senha: "a", Cargo: "PCP"}); err != nil {
		t.Fatalf("primeiro cadastro: %v", err)
	}
	if _, err := s.Criar(ctx, Entrada{Login: "ana", Senha: "b", Cargo: "PCP"}); !errors.Is(err, ErrLoginEmUso) {
		t.Fatalf("duplicado: err = %v", err)
	}
	// mesmo login em outro cargo é permitido
	if _, err := s.Criar(ctx, Entrada{Login: "ana", Senha: "c", Cargo: "MONTADOR"}); err != nil {
		t.Fatalf("mesmo login, outro cargo: %v", err)
	}
}

func TestAtualizarRederivaNivel(t *testing.T) {
	s := NewService(memory.New())
	ctx := context.Background()

	u, err := s.Criar(ctx, Entrada{Login: "beto", Senha: "x", Cargo: "MONTADOR"})
	if err != nil {
		t.Fatalf("Criar: %v", err)
	}
	if u.Nivel != NivelUser {
		t.Fatalf("nível inicial = %q", u.Nivel)
	}

	hashAntes := u.SenhaHash
	atualizado, err := s.Atualizar(ctx, u.ID, Entrada{Cargo: "LIDER MONTAGEM"})
	if err != nil {
		t.Fatalf("Atualizar: %v", err)
	}
	if atualizado.Nivel != NivelLider {
		t.Fatalf("nível após promoção = %q", atualizado.Nivel)
	}
	if atualizado.SenhaHash != hashAntes {
		t.Fatal("senha não informada não deveria mudar o hash")
	}
}

func TestAlternarAtivo(t *testing.T) {
	s := NewService(memory.New())
	ctx := context.Background()

	u, err := s.Criar(ctx, Entrada{Login: "cris", Senha: "x", Cargo: "MONTADOR"})
	if err != nil {
		t.Fatalf("Criar: %v", err)
	}

	desligado, err := s.AlternarAtivo(ctx, u.ID)
	if err != nil {
		t.Fatalf("AlternarAtivo: %v", err)
	}
	if desligado.Ativo {
		t.Fatal("deveria ter desativado")
	}

	ligado, err := s.AlternarAtivo(ctx, u.ID)
	if err != nil {
		t.Fatalf("AlternarAtivo: %v", err)
	}
	if !ligado.Ativo {
		t.Fatal("deveria ter reativado")
	}
}

func TestUltimoAdminProtegido(t *testing.T) {
	s := NewService(memory.New())
	ctx := context.Background()

	adm, err := s.Criar(ctx, Entrada{Login: "ana", Senha: "x", Cargo: "PCP"})
	if err != nil {
		t.Fatalf("Criar: %v", err)
	}

	if err := s.Excluir(ctx, adm.ID); !errors.Is(err, ErrUltimoAdmin) {
		t.Fatalf("excluir último ADM: err = %v", err)
	}
	if _, err := s.AlternarAtivo(ctx, adm.ID); !errors.Is(err, ErrUltimoAdmin) {
		t.Fatalf("desativar último ADM: err = %v", err)
	}

	// com um segundo ADM ativo, a exclusão libera
	if _, err := s.Criar(ctx, Entrada{Login: "davi", Senha: "x", Cargo: "PCP"}); err != nil {
		t.Fatalf("Criar: %v", err)
	}
	if err := s.Excluir(ctx, adm.ID); err != nil {
		t.Fatalf("excluir com outro ADM: %v", err)
	}
}

func TestLideresMaiusculos(t *testing.T) {
	s := NewService(memory.New())
	ctx := context.Background()

	if _, err := s.SalvarLider(ctx, "  "); !errors.Is(err, ErrNomeObrigatorio) {
		t.Fatalf("nome vazio: err = %v", err)
	}

	l, err := s.SalvarLider(ctx, "carlos silva")
	if err != nil {
		t.Fatalf("SalvarLider: %v", err)
	}
	if l.Nome != "CARLOS SILVA" {
		t.Fatalf("nome = %q, quer maiúsculas", l.Nome)
	}

	if err := s.ExcluirLider(ctx, "carlos silva"); err != nil {
		t.Fatalf("ExcluirLider: %v", err)
	}
	if err := s.ExcluirLider(ctx, "carlos silva"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("excluir de novo: err = %v", err)
	}
}
