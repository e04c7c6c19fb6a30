// Package postgres implementa RecordStore sobre PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabricasc/producao/internal/db"
	"github.com/fabricasc/producao/internal/store"
)

var _ store.RecordStore = (*Store)(nil)

// Store provê acesso às tabelas do sistema de OPs.
type Store struct {
	pool *pgxpool.Pool
}

// New cria o store e garante o esquema.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.migrar(ctx); err != nil {
		return nil, store.WrapErr("migrar", err)
	}
	return s, nil
}

func (s *Store) migrar(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ordens (
			numero_op TEXT PRIMARY KEY,
			equipamento TEXT NOT NULL DEFAULT '',
			cliente TEXT NOT NULL DEFAULT '',
			cnpj TEXT NOT NULL DEFAULT '',
			data_op TEXT NOT NULL DEFAULT '',
			data_entrega TEXT NOT NULL DEFAULT '',
			vendedor TEXT NOT NULL DEFAULT '',
			responsavel_setor TEXT NOT NULL DEFAULT '',
			endereco_entrega TEXT NOT NULL DEFAULT '',
			assistencia TEXT NOT NULL DEFAULT '',
			especificacoes JSONB NOT NULL DEFAULT '{}',
			progresso INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'Em Produção',
			checks_concluidos JSONB NOT NULL DEFAULT '[]',
			acompanhamento_log JSONB NOT NULL DEFAULT '[]',
			criado_em TIMESTAMPTZ NOT NULL DEFAULT now(),
			atualizado_em TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS maquinas (
			nome TEXT PRIMARY KEY,
			conjuntos TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS setores (
			nome TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS modelos_op (
			nome_maquina TEXT PRIMARY KEY,
			layout JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS usuarios (
			id UUID PRIMARY KEY,
			login TEXT NOT NULL,
			senha_hash TEXT NOT NULL,
			cargo TEXT NOT NULL DEFAULT '',
			nivel TEXT NOT NULL DEFAULT 'USER',
			ativo BOOLEAN NOT NULL DEFAULT TRUE,
			criado_em TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// coluna adicionada depois da primeira versão do esquema;
		// idempotente, diferente do ALTER às cegas do sistema antigo
		`ALTER TABLE ordens ADD COLUMN IF NOT EXISTS anexo TEXT NOT NULL DEFAULT ''`,
	}

	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

const colunasOrdem = `numero_op, equipamento, cliente, cnpj, data_op, data_entrega, vendedor,
	responsavel_setor, endereco_entrega, assistencia, especificacoes, progresso, status,
	checks_concluidos, acompanhamento_log, anexo, criado_em, atualizado_em`

// GetOrdem busca uma ordem pelo número.
func (s *Store) GetOrdem(ctx context.Context, numero string) (*store.Ordem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ordens WHERE numero_op = $1`, colunasOrdem)
	o, err := scanOrdem(s.pool.QueryRow(ctx, query, numero))
	return o, store.WrapErr("get ordem", err)
}

// ListOrdens lista as ordens mais recentes primeiro.
func (s *Store) ListOrdens(ctx context.Context) ([]store.Ordem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ordens ORDER BY criado_em DESC, numero_op DESC`, colunasOrdem)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, store.WrapErr("list ordens", err)
	}
	defer rows.Close()

	var ordens []store.Ordem
	for rows.Next() {
		o, err := scanOrdem(rows)
		if err != nil {
			return nil, store.WrapErr("list ordens", err)
		}
		ordens = append(ordens, *o)
	}
	if rows.Err() != nil {
		return nil, store.WrapErr("list ordens", rows.Err())
	}
	return ordens, nil
}

// UpsertOrdem insere ou substitui integralmente a linha da ordem.
func (s *Store) UpsertOrdem(ctx context.Context, o store.Ordem) error {
	const query = `
		INSERT INTO ordens (numero_op, equipamento, cliente, cnpj, data_op, data_entrega, vendedor,
			responsavel_setor, endereco_entrega, assistencia, especificacoes, progresso, status,
			checks_concluidos, acompanhamento_log, anexo, criado_em, atualizado_em)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (numero_op) DO UPDATE SET
			equipamento = EXCLUDED.equipamento,
			cliente = EXCLUDED.cliente,
			cnpj = EXCLUDED.cnpj,
			data_op = EXCLUDED.data_op,
			data_entrega = EXCLUDED.data_entrega,
			vendedor = EXCLUDED.vendedor,
			responsavel_setor = EXCLUDED.responsavel_setor,
			endereco_entrega = EXCLUDED.endereco_entrega,
			assistencia = EXCLUDED.assistencia,
			especificacoes = EXCLUDED.especificacoes,
			progresso = EXCLUDED.progresso,
			status = EXCLUDED.status,
			checks_concluidos = EXCLUDED.checks_concluidos,
			acompanhamento_log = EXCLUDED.acompanhamento_log,
			anexo = EXCLUDED.anexo,
			criado_em = EXCLUDED.criado_em,
			atualizado_em = EXCLUDED.atualizado_em
	`

	specs, checks, registros, err := serializarOrdem(o)
	if err != nil {
		return store.WrapErr("upsert ordem", err)
	}

	_, err = s.pool.Exec(ctx, query,
		o.NumeroOP, o.Equipamento, o.Cliente, o.CNPJ, o.DataOP, o.DataEntrega, o.Vendedor,
		o.ResponsavelSetor, o.EnderecoEntrega, o.Assistencia, specs, o.Progresso, o.Status,
		checks, registros, o.Anexo, o.CriadoEm, o.AtualizadoEm,
	)
	return store.WrapErr("upsert ordem", err)
}

// DeleteOrdem remove a ordem definitivamente.
func (s *Store) DeleteOrdem(ctx context.Context, numero string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ordens WHERE numero_op = $1`, numero)
	if err != nil {
		return store.WrapErr("delete ordem", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetMaquina busca máquina pelo nome.
func (s *Store) GetMaquina(ctx context.Context, nome string) (*store.Maquina, error) {
	var conjuntos string
	var m store.Maquina
	err := s.pool.QueryRow(ctx, `SELECT nome, conjuntos FROM maquinas WHERE nome = $1`, nome).
		Scan(&m.Nome, &conjuntos)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.WrapErr("get maquina", err)
	}
	m.Conjuntos = store.SepararLista(conjuntos)
	return &m, nil
}

// ListMaquinas lista máquinas em ordem alfabética.
func (s *Store) ListMaquinas(ctx context.Context) ([]store.Maquina, error) {
	rows, err := s.pool.Query(ctx, `SELECT nome, conjuntos FROM maquinas ORDER BY nome`)
	if err != nil {
		return nil, store.WrapErr("list maquinas", err)
	}
	defer rows.Close()

	var maquinas []store.Maquina
	for rows.Next() {
		var m store.Maquina
		var conjuntos string
		if err := rows.Scan(&m.Nome, &conjuntos); err != nil {
			return nil, store.WrapErr("list maquinas", err)
		}
		m.Conjuntos = store.SepararLista(conjuntos)
		maquinas = append(maquinas, m)
	}
	if rows.Err() != nil {
		return nil, store.WrapErr("list maquinas", rows.Err())
	}
	return maquinas, nil
}

// UpsertMaquina insere ou substitui a máquina.
func (s *Store) UpsertMaquina(ctx context.Context, m store.Maquina) error {
	const query = `
		INSERT INTO maquinas (nome, conjuntos) VALUES ($1, $2)
		ON CONFLICT (nome) DO UPDATE SET conjuntos = EXCLUDED.conjuntos
	`
	_, err := s.pool.Exec(ctx, query, m.Nome, store.JuntarLista(m.Conjuntos))
	return store.WrapErr("upsert maquina", err)
}

// DeleteMaquina remove a máquina.
func (s *Store) DeleteMaquina(ctx context.Context, nome string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM maquinas WHERE nome = $1`, nome)
	if err != nil {
		return store.WrapErr("delete maquina", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetModelo busca o layout de ficha salvo da máquina.
func (s *Store) GetModelo(ctx context.Context, maquina string) (*store.Modelo, error) {
	var m store.Modelo
	var layout []byte
	err := s.pool.QueryRow(ctx,
		`SELECT nome_maquina, layout FROM modelos_op WHERE nome_maquina = $1`, maquina).
		Scan(&m.Maquina, &layout)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.WrapErr("get modelo", err)
	}
	if err := json.Unmarshal(layout, &m.Estrutura); err != nil {
		return nil, store.WrapErr("get modelo", err)
	}
	return &m, nil
}

// UpsertModelo insere ou substitui o layout da máquina.
func (s *Store) UpsertModelo(ctx context.Context, m store.Modelo) error {
	layout, err := json.Marshal(m.Estrutura)
	if err != nil {
		return store.WrapErr("upsert modelo", err)
	}
	const query = `
		INSERT INTO modelos_op (nome_maquina, layout) VALUES ($1, $2)
		ON CONFLICT (nome_maquina) DO UPDATE SET layout = EXCLUDED.layout
	`
	_, err = s.pool.Exec(ctx, query, m.Maquina, layout)
	return store.WrapErr("upsert modelo", err)
}

// DeleteModelo remove o layout salvo.
func (s *Store) DeleteModelo(ctx context.Context, maquina string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM modelos_op WHERE nome_maquina = $1`, maquina)
	if err != nil {
		return store.WrapErr("delete modelo", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListLideres lista líderes em ordem alfabética.
func (s *Store) ListLideres(ctx context.Context) ([]store.Lider, error) {
	rows, err := s.pool.Query(ctx, `SELECT nome FROM setores ORDER BY nome`)
	if err != nil {
		return nil, store.WrapErr("list lideres", err)
	}
	defer rows.Close()

	var lideres []store.Lider
	for rows.Next() {
		var l store.Lider
		if err := rows.Scan(&l.Nome); err != nil {
			return nil, store.WrapErr("list lideres", err)
		}
		lideres = append(lideres, l)
	}
	if rows.Err() != nil {
		return nil, store.WrapErr("list lideres", rows.Err())
	}
	return lideres, nil
}

// UpsertLider insere o líder se ainda não existir.
func (s *Store) UpsertLider(ctx context.Context, l store.Lider) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO setores (nome) VALUES ($1) ON CONFLICT (nome) DO NOTHING`, l.Nome)
	return store.WrapErr("upsert lider", err)
}

// DeleteLider remove o líder.
func (s *Store) DeleteLider(ctx context.Context, nome string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM setores WHERE nome = $1`, nome)
	if err != nil {
		return store.WrapErr("delete lider", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const colunasUsuario = `id, login, senha_hash, cargo, nivel, ativo, criado_em`

// GetUsuario busca usuário pelo id.
func (s *Store) GetUsuario(ctx context.Context, id uuid.UUID) (*store.Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios WHERE id = $1`, colunasUsuario)
	u, err := scanUsuario(s.pool.QueryRow(ctx, query, id))
	return u, store.WrapErr("get usuario", err)
}

// GetUsuarioPorLogin busca usuário por login e cargo.
func (s *Store) GetUsuarioPorLogin(ctx context.Context, login, cargo string) (*store.Usuario, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM usuarios WHERE lower(login) = lower($1) AND lower(cargo) = lower($2)`,
		colunasUsuario)
	u, err := scanUsuario(s.pool.QueryRow(ctx, query, login, cargo))
	return u, store.WrapErr("get usuario por login", err)
}

// ListUsuarios lista usuários ordenados por login.
func (s *Store) ListUsuarios(ctx context.Context) ([]store.Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios ORDER BY login`, colunasUsuario)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, store.WrapErr("list usuarios", err)
	}
	defer rows.Close()

	var usuarios []store.Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, store.WrapErr("list usuarios", err)
		}
		usuarios = append(usuarios, *u)
	}
	if rows.Err() != nil {
		return nil, store.WrapErr("list usuarios", rows.Err())
	}
	return usuarios, nil
}

// UpsertUsuario insere ou substitui o usuário.
func (s *Store) UpsertUsuario(ctx context.Context, u store.Usuario) error {
	const query = `
		INSERT INTO usuarios (id, login, senha_hash, cargo, nivel, ativo, criado_em)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			login = EXCLUDED.login,
			senha_hash = EXCLUDED.senha_hash,
			cargo = EXCLUDED.cargo,
			nivel = EXCLUDED.nivel,
			ativo = EXCLUDED.ativo
	`
	_, err := s.pool.Exec(ctx, query, u.ID, u.Login, u.SenhaHash, u.Cargo, u.Nivel, u.Ativo, u.CriadoEm)
	return store.WrapErr("upsert usuario", err)
}

// DeleteUsuario remove o usuário.
func (s *Store) DeleteUsuario(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return store.WrapErr("delete usuario", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func serializarOrdem(o store.Ordem) (specs, checks, registros []byte, err error) {
	specs, err = json.Marshal(o.Especificacoes)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.ChecksConcluidos == nil {
		o.ChecksConcluidos = []string{}
	}
	checks, err = json.Marshal(o.ChecksConcluidos)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.Log == nil {
		o.Log = []store.RegistroLog{}
	}
	registros, err = json.Marshal(o.Log)
	return specs, checks, registros, err
}

func scanOrdem(row pgx.Row) (*store.Ordem, error) {
	var o store.Ordem
	var specs, checks, registros []byte
	err := row.Scan(&o.NumeroOP, &o.Equipamento, &o.Cliente, &o.CNPJ, &o.DataOP, &o.DataEntrega,
		&o.Vendedor, &o.ResponsavelSetor, &o.EnderecoEntrega, &o.Assistencia, &specs,
		&o.Progresso, &o.Status, &checks, &registros, &o.Anexo, &o.CriadoEm, &o.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(specs, &o.Especificacoes); err != nil {
		return nil, err
	}
	if o.Especificacoes.Valores == nil {
		o.Especificacoes.Valores = map[string]string{}
	}
	if err := json.Unmarshal(checks, &o.ChecksConcluidos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(registros, &o.Log); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanUsuario(row pgx.Row) (*store.Usuario, error) {
	var u store.Usuario
	err := row.Scan(&u.ID, &u.Login, &u.SenhaHash, &u.Cargo, &u.Nivel, &u.Ativo, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
