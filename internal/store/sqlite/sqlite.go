// Package sqlite implementa RecordStore sobre SQLite (driver puro Go
// modernc.org/sqlite), o backend das instalações de máquina única.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fabricasc/producao/internal/store"
)

var _ store.RecordStore = (*Store)(nil)

// Store provê acesso ao arquivo SQLite.
type Store struct {
	db *sql.DB
}

// Open abre (ou cria) o banco e garante o esquema.
func Open(ctx context.Context, caminho string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+caminho+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, store.WrapErr("open", err)
	}
	// o driver serializa escritas; conexão única evita SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrar(ctx); err != nil {
		db.Close()
		return nil, store.WrapErr("migrar", err)
	}
	return s, nil
}

// Close fecha o banco.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping valida a conexão (usado no /ready).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
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
			especificacoes TEXT NOT NULL DEFAULT '{}',
			progresso INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'Em Produção',
			checks_concluidos TEXT NOT NULL DEFAULT '[]',
			acompanhamento_log TEXT NOT NULL DEFAULT '[]',
			criado_em TEXT NOT NULL DEFAULT '',
			atualizado_em TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS maquinas (
			nome TEXT PRIMARY KEY,
			conjuntos TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS setores (nome TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS modelos_op (
			nome_maquina TEXT PRIMARY KEY,
			layout_json TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS usuarios (
			id TEXT PRIMARY KEY,
			login TEXT NOT NULL,
			senha_hash TEXT NOT NULL,
			cargo TEXT NOT NULL DEFAULT '',
			nivel TEXT NOT NULL DEFAULT 'USER',
			ativo INTEGER NOT NULL DEFAULT 1,
			criado_em TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// coluna de anexo chegou depois; SQLite não tem ADD COLUMN IF NOT
	// EXISTS, então a presença é checada no catálogo antes do ALTER
	temAnexo, err := s.temColuna(ctx, "ordens", "anexo")
	if err != nil {
		return err
	}
	if !temAnexo {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE ordens ADD COLUMN anexo TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) temColuna(ctx context.Context, tabela, coluna string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, tabela))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var nome, tipo string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &nome, &tipo, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(nome, coluna) {
			return true, nil
		}
	}
	return false, rows.Err()
}

const colunasOrdem = `numero_op, equipamento, cliente, cnpj, data_op, data_entrega, vendedor,
	responsavel_setor, endereco_entrega, assistencia, especificacoes, progresso, status,
	checks_concluidos, acompanhamento_log, anexo, criado_em, atualizado_em`

// GetOrdem busca uma ordem pelo número.
func (s *Store) GetOrdem(ctx context.Context, numero string) (*store.Ordem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ordens WHERE numero_op = ?`, colunasOrdem)
	o, err := scanOrdem(s.db.QueryRowContext(ctx, query, numero))
	return o, store.WrapErr("get ordem", err)
}

// ListOrdens lista as ordens mais recentes primeiro.
func (s *Store) ListOrdens(ctx context.Context) ([]store.Ordem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ordens ORDER BY criado_em DESC, numero_op DESC`, colunasOrdem)

	rows, err := s.db.QueryContext(ctx, query)
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
	query := fmt.Sprintf(`INSERT OR REPLACE INTO ordens (%s) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, colunasOrdem)

	specs, err := json.Marshal(o.Especificacoes)
	if err != nil {
		return store.WrapErr("upsert ordem", err)
	}
	if o.ChecksConcluidos == nil {
		o.ChecksConcluidos = []string{}
	}
	checks, err := json.Marshal(o.ChecksConcluidos)
	if err != nil {
		return store.WrapErr("upsert ordem", err)
	}
	if o.Log == nil {
		o.Log = []store.RegistroLog{}
	}
	registros, err := json.Marshal(o.Log)
	if err != nil {
		return store.WrapErr("upsert ordem", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		o.NumeroOP, o.Equipamento, o.Cliente, o.CNPJ, o.DataOP, o.DataEntrega, o.Vendedor,
		o.ResponsavelSetor, o.EnderecoEntrega, o.Assistencia, string(specs), o.Progresso, o.Status,
		string(checks), string(registros), o.Anexo,
		o.CriadoEm.UTC().Format(time.RFC3339Nano), o.AtualizadoEm.UTC().Format(time.RFC3339Nano),
	)
	return store.WrapErr("upsert ordem", err)
}

// DeleteOrdem remove a ordem definitivamente.
func (s *Store) DeleteOrdem(ctx context.Context, numero string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ordens WHERE numero_op = ?`, numero)
	return apagou(res, err, "delete ordem")
}

// GetMaquina busca máquina pelo nome.
func (s *Store) GetMaquina(ctx context.Context, nome string) (*store.Maquina, error) {
	var m store.Maquina
	var conjuntos string
	err := s.db.QueryRowContext(ctx, `SELECT nome, conjuntos FROM maquinas WHERE nome = ?`, nome).
		Scan(&m.Nome, &conjuntos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.WrapErr("get maquina", err)
	}
	m.Conjuntos = store.SepararLista(conjuntos)
	return &m, nil
}

// ListMaquinas lista máquinas em ordem alfabética.
func (s *Store) ListMaquinas(ctx context.Context) ([]store.Maquina, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT nome, conjuntos FROM maquinas ORDER BY nome`)
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
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO maquinas (nome, conjuntos) VALUES (?, ?)`,
		m.Nome, store.JuntarLista(m.Conjuntos))
	return store.WrapErr("upsert maquina", err)
}

// DeleteMaquina remove a máquina.
func (s *Store) DeleteMaquina(ctx context.Context, nome string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM maquinas WHERE nome = ?`, nome)
	return apagou(res, err, "delete maquina")
}

// GetModelo busca o layout de ficha salvo da máquina.
func (s *Store) GetModelo(ctx context.Context, maquina string) (*store.Modelo, error) {
	var m store.Modelo
	var layout string
	err := s.db.QueryRowContext(ctx,
		`SELECT nome_maquina, layout_json FROM modelos_op WHERE nome_maquina = ?`, maquina).
		Scan(&m.Maquina, &layout)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.WrapErr("get modelo", err)
	}
	if err := json.Unmarshal([]byte(layout), &m.Estrutura); err != nil {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO modelos_op (nome_maquina, layout_json) VALUES (?, ?)`,
		m.Maquina, string(layout))
	return store.WrapErr("upsert modelo", err)
}

// DeleteModelo remove o layout salvo.
func (s *Store) DeleteModelo(ctx context.Context, maquina string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modelos_op WHERE nome_maquina = ?`, maquina)
	return apagou(res, err, "delete modelo")
}

// ListLideres lista líderes em ordem alfabética.
func (s *Store) ListLideres(ctx context.Context) ([]store.Lider, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT nome FROM setores ORDER BY nome`)
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
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO setores (nome) VALUES (?)`, l.Nome)
	return store.WrapErr("upsert lider", err)
}

// DeleteLider remove o líder.
func (s *Store) DeleteLider(ctx context.Context, nome string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM setores WHERE nome = ?`, nome)
	return apagou(res, err, "delete lider")
}

const colunasUsuario = `id, login, senha_hash, cargo, nivel, ativo, criado_em`

// GetUsuario busca usuário pelo id.
func (s *Store) GetUsuario(ctx context.Context, id uuid.UUID) (*store.Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios WHERE id = ?`, colunasUsuario)
	u, err := scanUsuario(s.db.QueryRowContext(ctx, query, id.String()))
	return u, store.WrapErr("get usuario", err)
}

// GetUsuarioPorLogin busca usuário por login e cargo.
func (s *Store) GetUsuarioPorLogin(ctx context.Context, login, cargo string) (*store.Usuario, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM usuarios WHERE lower(login) = lower(?) AND lower(cargo) = lower(?)`,
		colunasUsuario)
	u, err := scanUsuario(s.db.QueryRowContext(ctx, query, login, cargo))
	return u, store.WrapErr("get usuario por login", err)
}

// ListUsuarios lista usuários ordenados por login.
func (s *Store) ListUsuarios(ctx context.Context) ([]store.Usuario, error) {
	query := fmt.Sprintf(`SELECT %s FROM usuarios ORDER BY login`, colunasUsuario)

	rows, err := s.db.QueryContext(ctx, query)
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
	query := fmt.Sprintf(`INSERT OR REPLACE INTO usuarios (%s) VALUES (?,?,?,?,?,?,?)`, colunasUsuario)
	_, err := s.db.ExecContext(ctx, query,
		u.ID.String(), u.Login, u.SenhaHash, u.Cargo, u.Nivel, boolParaInt(u.Ativo),
		u.CriadoEm.UTC().Format(time.RFC3339Nano))
	return store.WrapErr("upsert usuario", err)
}

// DeleteUsuario remove o usuário.
func (s *Store) DeleteUsuario(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM usuarios WHERE id = ?`, id.String())
	return apagou(res, err, "delete usuario")
}

type linha interface {
	Scan(dest ...any) error
}

func scanOrdem(row linha) (*store.Ordem, error) {
	var o store.Ordem
	var specs, checks, registros, criado, atualizado string
	err := row.Scan(&o.NumeroOP, &o.Equipamento, &o.Cliente, &o.CNPJ, &o.DataOP, &o.DataEntrega,
		&o.Vendedor, &o.ResponsavelSetor, &o.EnderecoEntrega, &o.Assistencia, &specs,
		&o.Progresso, &o.Status, &checks, &registros, &o.Anexo, &criado, &atualizado)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(specs), &o.Especificacoes); err != nil {
		return nil, err
	}
	if o.Especificacoes.Valores == nil {
		o.Especificacoes.Valores = map[string]string{}
	}
	if err := json.Unmarshal([]byte(checks), &o.ChecksConcluidos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(registros), &o.Log); err != nil {
		return nil, err
	}
	o.CriadoEm, _ = time.Parse(time.RFC3339Nano, criado)
	o.AtualizadoEm, _ = time.Parse(time.RFC3339Nano, atualizado)
	return &o, nil
}

func scanUsuario(row linha) (*store.Usuario, error) {
	var u store.Usuario
	var id, criado string
	var ativo int
	err := row.Scan(&id, &u.Login, &u.SenhaHash, &u.Cargo, &u.Nivel, &ativo, &criado)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	u.Ativo = ativo != 0
	u.CriadoEm, _ = time.Parse(time.RFC3339Nano, criado)
	return &u, nil
}

func apagou(res sql.Result, err error, op string) error {
	if err != nil {
		return store.WrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.WrapErr(op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func boolParaInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
