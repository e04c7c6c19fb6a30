// Package memory implementa RecordStore em memória, para testes e
// execuções efêmeras. Todas as operações copiam os registros na
// entrada e na saída para impedir aliasing com os chamadores.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fabricasc/producao/internal/ficha"
	"github.com/fabricasc/producao/internal/store"
)

var _ store.RecordStore = (*Store)(nil)

// Store guarda as coleções protegidas por mutex.
type Store struct {
	mu       sync.RWMutex
	ordens   map[string]store.Ordem
	maquinas map[string]store.Maquina
	modelos  map[string]store.Modelo
	lideres  map[string]store.Lider
	usuarios map[uuid.UUID]store.Usuario
}

// New cria um store vazio.
func New() *Store {
	return &Store{
		ordens:   make(map[string]store.Ordem),
		maquinas: make(map[string]store.Maquina),
		modelos:  make(map[string]store.Modelo),
		lideres:  make(map[string]store.Lider),
		usuarios: make(map[uuid.UUID]store.Usuario),
	}
}

// GetOrdem busca ordem pelo número.
func (s *Store) GetOrdem(_ context.Context, numero string) (*store.Ordem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.ordens[numero]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copiarOrdem(o)
	return &cp, nil
}

// ListOrdens devolve as ordens mais recentes primeiro.
func (s *Store) ListOrdens(_ context.Context) ([]store.Ordem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Ordem, 0, len(s.ordens))
	for _, o := range s.ordens {
		out = append(out, copiarOrdem(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CriadoEm.Equal(out[j].CriadoEm) {
			return out[i].NumeroOP > out[j].NumeroOP
		}
		return out[i].CriadoEm.After(out[j].CriadoEm)
	})
	return out, nil
}

// UpsertOrdem substitui integralmente a linha da ordem.
func (s *Store) UpsertOrdem(_ context.Context, o store.Ordem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ordens[o.NumeroOP] = copiarOrdem(o)
	return nil
}

// DeleteOrdem remove a ordem definitivamente.
func (s *Store) DeleteOrdem(_ context.Context, numero string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ordens[numero]; !ok {
		return store.ErrNotFound
	}
	delete(s.ordens, numero)
	return nil
}

// GetMaquina busca máquina pelo nome.
func (s *Store) GetMaquina(_ context.Context, nome string) (*store.Maquina, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maquinas[nome]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copiarMaquina(m)
	return &cp, nil
}

// ListMaquinas devolve as máquinas em ordem alfabética.
func (s *Store) ListMaquinas(_ context.Context) ([]store.Maquina, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Maquina, 0, len(s.maquinas))
	for _, m := range s.maquinas {
		out = append(out, copiarMaquina(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

// UpsertMaquina insere ou substitui a máquina.
func (s *Store) UpsertMaquina(_ context.Context, m store.Maquina) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maquinas[m.Nome] = copiarMaquina(m)
	return nil
}

// DeleteMaquina remove a máquina.
func (s *Store) DeleteMaquina(_ context.Context, nome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maquinas[nome]; !ok {
		return store.ErrNotFound
	}
	delete(s.maquinas, nome)
	return nil
}

// GetModelo busca o layout salvo da máquina.
func (s *Store) GetModelo(_ context.Context, maquina string) (*store.Modelo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modelos[maquina]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := store.Modelo{Maquina: m.Maquina, Estrutura: copiarEstrutura(m.Estrutura)}
	return &cp, nil
}

// UpsertModelo insere ou substitui o layout da máquina.
func (s *Store) UpsertModelo(_ context.Context, m store.Modelo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modelos[m.Maquina] = store.Modelo{Maquina: m.Maquina, Estrutura: copiarEstrutura(m.Estrutura)}
	return nil
}

// DeleteModelo remove o layout salvo.
func (s *Store) DeleteModelo(_ context.Context, maquina string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.modelos[maquina]; !ok {
		return store.ErrNotFound
	}
	delete(s.modelos, maquina)
	return nil
}

// ListLideres devolve os líderes em ordem alfabética.
func (s *Store) ListLideres(_ context.Context) ([]store.Lider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Lider, 0, len(s.lideres))
	for _, l := range s.lideres {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

// UpsertLider insere ou substitui o líder.
func (s *Store) UpsertLider(_ context.Context, l store.Lider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lideres[l.Nome] = l
	return nil
}

// DeleteLider remove o líder.
func (s *Store) DeleteLider(_ context.Context, nome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lideres[nome]; !ok {
		return store.ErrNotFound
	}
	delete(s.lideres, nome)
	return nil
}

// GetUsuario busca usuário pelo id.
func (s *Store) GetUsuario(_ context.Context, id uuid.UUID) (*store.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usuarios[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// GetUsuarioPorLogin busca usuário por login+cargo (case-insensitive).
func (s *Store) GetUsuarioPorLogin(_ context.Context, login, cargo string) (*store.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.usuarios {
		if strings.EqualFold(u.Login, login) && strings.EqualFold(u.Cargo, cargo) {
			cp := u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListUsuarios devolve os usuários ordenados por login.
func (s *Store) ListUsuarios(_ context.Context) ([]store.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Usuario, 0, len(s.usuarios))
	for _, u := range s.usuarios {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

// UpsertUsuario insere ou substitui o usuário.
func (s *Store) UpsertUsuario(_ context.Context, u store.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usuarios[u.ID] = u
	return nil
}

// DeleteUsuario remove o usuário.
func (s *Store) DeleteUsuario(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usuarios[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.usuarios, id)
	return nil
}

func copiarOrdem(o store.Ordem) store.Ordem {
	cp := o
	cp.ChecksConcluidos = append([]string(nil), o.ChecksConcluidos...)
	cp.Log = append([]store.RegistroLog(nil), o.Log...)
	if o.Especificacoes.Valores != nil {
		valores := make(map[string]string, len(o.Especificacoes.Valores))
		for k, v := range o.Especificacoes.Valores {
			valores[k] = v
		}
		cp.Especificacoes.Valores = valores
	}
	cp.Especificacoes.Estrutura = copiarEstrutura(o.Especificacoes.Estrutura)
	return cp
}

func copiarEstrutura(e ficha.Estrutura) ficha.Estrutura {
	secoes := make([]ficha.Secao, len(e.Secoes))
	for i, sec := range e.Secoes {
		campos := make([]ficha.Campo, len(sec.Campos))
		copy(campos, sec.Campos)
		secoes[i] = ficha.Secao{Nome: sec.Nome, Campos: campos}
	}
	return ficha.Estrutura{Secoes: secoes}
}

func copiarMaquina(m store.Maquina) store.Maquina {
	cp := m
	cp.Conjuntos = append([]string(nil), m.Conjuntos...)
	return cp
}
