// Package maquina administra as máquinas e seus modelos de checklist
// (conjuntos). Cada máquina é identificada pelo nome.
package maquina

import (
	"context"
	"errors"
	"strings"

	"github.com/fabricasc/producao/internal/store"
)

var (
	// ErrNomeObrigatorio indica cadastro de máquina sem nome.
	ErrNomeObrigatorio = errors.New("nome da máquina obrigatório")
)

// Service reúne as regras de cadastro de máquinas.
type Service struct {
	store store.RecordStore
}

func NewService(st store.RecordStore) *Service {
	return &Service{store: st}
}

// Listar devolve todas as máquinas cadastradas.
func (s *Service) Listar(ctx context.Context) ([]store.Maquina, error) {
	return s.store.ListMaquinas(ctx)
}

// Buscar carrega uma máquina pelo nome.
func (s *Service) Buscar(ctx context.Context, nome string) (*store.Maquina, error) {
	return s.store.GetMaquina(ctx, nome)
}

// Salvar faz o upsert da máquina pelo nome. Conjuntos vazios são
// descartados; a ordem dos demais é preservada (ela dita a ordem do
// checklist nas ordens).
func (s *Service) Salvar(ctx context.Context, nome string, conjuntos []string) (*store.Maquina, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return nil, ErrNomeObrigatorio
	}

	limpos := make([]string, 0, len(conjuntos))
	for _, c := range conjuntos {
		c = strings.TrimSpace(c)
		if c != "" {
			limpos = append(limpos, c)
		}
	}

	m := store.Maquina{Nome: nome, Conjuntos: limpos}
	if err := s.store.UpsertMaquina(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Excluir remove a máquina do cadastro. Ordens existentes mantêm o
// nome do equipamento; apenas o checklist deixa de resolver.
func (s *Service) Excluir(ctx context.Context, nome string) error {
	return s.store.DeleteMaquina(ctx, nome)
}
