// Package store define o contrato de persistência do sistema de OPs.
// Os backends (Postgres, SQLite, memória) implementam RecordStore; as
// camadas de serviço nunca falam SQL diretamente.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fabricasc/producao/internal/ficha"
)

// Ordem é o registro central: a ordem de produção com sua ficha
// técnica congelada, checklist, log de acompanhamento e anexo.
type Ordem struct {
	NumeroOP         string               `json:"numero_op"`
	Equipamento      string               `json:"equipamento"`
	Cliente          string               `json:"cliente"`
	CNPJ             string               `json:"cnpj"`
	DataOP           string               `json:"data_op"`
	DataEntrega      string               `json:"data_entrega"`
	Vendedor         string               `json:"vendedor"`
	ResponsavelSetor string               `json:"responsavel_setor"`
	EnderecoEntrega  string               `json:"endereco_entrega"`
	Assistencia      string               `json:"assistencia"`
	Especificacoes   ficha.Especificacoes `json:"especificacoes"`
	Progresso        int                  `json:"progresso"`
	Status           string               `json:"status"`
	ChecksConcluidos []string             `json:"checks_concluidos"`
	Log              []RegistroLog        `json:"log"`
	Anexo            string               `json:"anexo,omitempty"`
	CriadoEm         time.Time            `json:"criado_em"`
	AtualizadoEm     time.Time            `json:"atualizado_em"`
}

// RegistroLog é uma entrada do histórico de acompanhamento da ordem.
// O log só cresce; entradas nunca são editadas ou removidas.
type RegistroLog struct {
	ID           uuid.UUID `json:"id"`
	Autor        string    `json:"autor"`
	CargoDestino string    `json:"cargo_destino"`
	Mensagem     string    `json:"mensagem"`
	CriadoEm     time.Time `json:"criado_em"`
}

// Maquina é o modelo de equipamento com seu checklist de conjuntos.
type Maquina struct {
	Nome      string   `json:"nome"`
	Conjuntos []string `json:"conjuntos"`
}

// Usuario é a conta de acesso ao sistema.
type Usuario struct {
	ID        uuid.UUID `json:"id"`
	Login     string    `json:"login"`
	SenhaHash string    `json:"-"`
	Cargo     string    `json:"cargo"`
	Nivel     string    `json:"nivel"`
	Ativo     bool      `json:"ativo"`
	CriadoEm  time.Time `json:"criado_em"`
}

// Lider é um responsável de setor elegível como dono de OP.
type Lider struct {
	Nome string `json:"nome"`
}

// Modelo é o layout de ficha técnica salvo por máquina, oferecido como
// atalho ao lançar uma OP nova do mesmo equipamento.
type Modelo struct {
	Maquina   string          `json:"maquina"`
	Estrutura ficha.Estrutura `json:"estrutura"`
}

// RecordStore abstrai o CRUD das coleções do sistema. O upsert de
// ordens é chaveado por numero_op: salvar sobre um número existente
// substitui a linha inteira (last write wins).
type RecordStore interface {
	GetOrdem(ctx context.Context, numero string) (*Ordem, error)
	ListOrdens(ctx context.Context) ([]Ordem, error)
	UpsertOrdem(ctx context.Context, o Ordem) error
	DeleteOrdem(ctx context.Context, numero string) error

	GetMaquina(ctx context.Context, nome string) (*Maquina, error)
	ListMaquinas(ctx context.Context) ([]Maquina, error)
	UpsertMaquina(ctx context.Context, m Maquina) error
	DeleteMaquina(ctx context.Context, nome string) error

	GetModelo(ctx context.Context, maquina string) (*Modelo, error)
	UpsertModelo(ctx context.Context, m Modelo) error
	DeleteModelo(ctx context.Context, maquina string) error

	ListLideres(ctx context.Context) ([]Lider, error)
	UpsertLider(ctx context.Context, l Lider) error
	DeleteLider(ctx context.Context, nome string) error

	GetUsuario(ctx context.Context, id uuid.UUID) (*Usuario, error)
	GetUsuarioPorLogin(ctx context.Context, login, cargo string) (*Usuario, error)
	ListUsuarios(ctx context.Context) ([]Usuario, error)
	UpsertUsuario(ctx context.Context, u Usuario) error
	DeleteUsuario(ctx context.Context, id uuid.UUID) error
}
