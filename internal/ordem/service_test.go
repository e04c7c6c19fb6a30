package ordem

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fabricasc/producao/internal/ficha"
	"github.com/fabricasc/producao/internal/store"
	"github.com/fabricasc/producao/internal/store/memory"
)

func novaEstrutura(t *testing.T, secao string, campos ...string) ficha.Estrutura {
	t.Helper()
	s := ficha.NovaSessao()
	if err := s.AdicionarSecao(secao); err != nil {
		t.Fatal(err)
	}
	for _, c := range campos {
		if err := s.AdicionarCampo(secao, c); err != nil {
			t.Fatal(err)
		}
	}
	est, err := s.Confirmar()
	if err != nil {
		t.Fatal(err)
	}
	return est
}

func novoServico(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewService(st, nil)
	return svc, st
}

func TestSalvarExigeNumero(t *testing.T) {
	svc, _ := novoServico(t)
	_, err := svc.Salvar(context.Background(), Entrada{NumeroOP: "  "})
	if !errors.Is(err, ErrNumeroObrigatorio) {
		t.Fatalf("err = %v, want ErrNumeroObrigatorio", err)
	}
}

func TestSalvarRejeitaEstruturaInvalida(t *testing.T) {
	svc, _ := novoServico(t)

	dupla := ficha.Estrutura{Secoes: []ficha.Secao{{
		Nome: "Dados",
		Campos: []ficha.Campo{
			{Nome: "Cliente", Tipo: ficha.TipoCliente},
			{Nome: "Cliente", Tipo: ficha.TipoCliente},
		},
	}}}
	_, err := svc.Salvar(context.Background(), Entrada{NumeroOP: "SC-1", Estrutura: dupla})
	if !errors.Is(err, ficha.ErrChaveDuplicada) {
		t.Fatalf("err = %v, want ErrChaveDuplicada", err)
	}
}

func TestModelosDeFicha(t *testing.T) {
	svc, _ := novoServico(t)
	ctx := context.Background()

	est := novaEstrutura(t, "Dados", "Cliente", "Data Entrega")

	if _, err := svc.SalvarModelo(ctx, "  ", est); !errors.Is(err, ErrMaquinaObrigatoria) {
		t.Fatalf("sem máquina: err = %v", err)
	}

	dupla := ficha.Estrutura{Secoes: []ficha.Secao{{
		Nome:   "Dados",
		Campos: []ficha.Campo{{Nome: "Cliente"}, {Nome: "Cliente"}},
	}}}
	if _, err := svc.SalvarModelo(ctx, "Envasadora", dupla); !errors.Is(err, ficha.ErrChaveDuplicada) {
		t.Fatalf("estrutura inválida: err = %v", err)
	}

	if _, err := svc.SalvarModelo(ctx, "Envasadora", est); err != nil {
		t.Fatalf("SalvarModelo: %v", err)
	}
	m, err := svc.BuscarModelo(ctx, "Envasadora")
	if err != nil {
		t.Fatalf("BuscarModelo: %v", err)
	}
	if !reflect.DeepEqual(m.Estrutura.Chaves(), est.Chaves()) {
		t.Fatalf("chaves = %v, quer %v", m.Estrutura.Chaves(), est.Chaves())
	}

	// regravar substitui o layout anterior
	outra := novaEstrutura(t, "Produção", "Bicos")
	if _, err := svc.SalvarModelo(ctx, "Envasadora", outra); err != nil {
		t.Fatalf("SalvarModelo: %v", err)
	}
	m, err = svc.BuscarModelo(ctx, "Envasadora")
	if err != nil {
		t.Fatalf("BuscarModelo: %v", err)
	}
	if !reflect.DeepEqual(m.Estrutura.Chaves(), []string{"Produção.Bicos"}) {
		t.Fatalf("layout não foi substituído: %v", m.Estrutura.Chaves())
	}

	if err := svc.ExcluirModelo(ctx, "Envasadora"); err != nil {
		t.Fatalf("ExcluirModelo: %v", err)
	}
	if _, err := svc.BuscarModelo(ctx, "Envasadora"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("após excluir: err = %v", err)
	}
}

func TestSalvarERecarregarParaEdicao(t *testing.T) {
	svc, _ := novoServico(t)
	ctx := context.Background()

	est := novaEstrutura(t, "Dados", "Cliente", "Data Entrega")
	_, err := svc.Salvar(ctx, Entrada{
		NumeroOP:    "SC-100",
		Equipamento: "Envasadora",
		Estrutura:   est,
		Valores: map[string]string{
			"Dados.Cliente":      "ACME",
			"Dados.Data Entrega": "2025-01-10",
		},
	})
	if err != nil {
		t.Fatalf("Salvar: %v", err)
	}

	o, err := svc.Buscar(ctx, "SC-100")
	if err != nil {
		t.Fatalf("Buscar: %v", err)
	}

	want := map[string]string{
		"Dados.Cliente":      "ACME",
		"Dados.Data Entrega": "2025-01-10",
	}
	if !reflect.DeepEqual(o.Especificacoes.Valores, want) {
		t.Fatalf("valores = %v, want %v", o.Especificacoes.Valores, want)
	}
	if !reflect.DeepEqual(o.Especificacoes.Estrutura, est) {
		t.Fatalf("estrutura congelada não sobreviveu ao ciclo salvar/buscar")
	}
	if o.Status != StatusEmProducao || o.Progresso != 0 {
		t.Fatalf("ordem nova: status=%q progresso=%d", o.Status, o.Progresso)
	}
}

func TestSalvarIdempotente(t *testing.T) {
	svc, _ := novoServico(t)
	ctx := context.Background()

	est := novaEstrutura(t, "Dados", "Cliente")
	entrada := Entrada{
		NumeroOP:  "SC-200",
		Estrutura: est,
		Valores:   map[string]string{"Dados.Cliente": "ACME"},
	}

	if _, err := svc.Salvar(ctx, entrada); err != nil {
		t.Fatal(err)
	}
	primeira, err := svc.Buscar(ctx, "SC-200")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Salvar(ctx, entrada); err != nil {
		t.Fatal(err)
	}
	segunda, err := svc.Buscar(ctx, "SC-200")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(primeira.Especificacoes.Valores, segunda.Especificacoes.Valores) {
		t.Fatalf("regravação alterou os valores: %v != %v",
			primeira.Especificacoes.Valores, segunda.Especificacoes.Valores)
	}
	if !primeira.CriadoEm.Equal(segunda.CriadoEm) {
		t.Fatalf("regravação alterou criado_em")
	}
}

func TestRegravarPreservaChecklistELog(t *testing.T) {
	svc, st := novoServico(t)
	ctx := context.Background()

	if err := st.UpsertMaquina(ctx, store.Maquina{Nome: "Envasadora", Conjuntos: []string{"Bicos", "Esteira"}}); err != nil {
		t.Fatal(err)
	}

	est := novaEstrutura(t, "Dados", "Cliente")
	if _, err := svc.Salvar(ctx, Entrada{NumeroOP: "SC-300", Equipamento: "Envasadora", Estrutura: est,
		Valores: map[string]string{"Dados.Cliente": "ACME"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AtualizarChecklist(ctx, "SC-300", []string{"Bicos"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AnexarLog(ctx, "SC-300", "maria", "PCP", "aguardando material"); err != nil {
		t.Fatal(err)
	}

	// regrava o formulário com outro cliente
	if _, err := svc.Salvar(ctx, Entrada{NumeroOP: "SC-300", Equipamento: "Envasadora", Estrutura: est,
		Valores: map[string]string{"Dados.Cliente": "Beta Ltda"}}); err != nil {
		t.Fatal(err)
	}

	o, err := svc.Buscar(ctx, "SC-300")
	if err != nil {
		t.Fatal(err)
	}
	if o.Especificacoes.Valores["Dados.Cliente"] != "Beta Ltda" {
		t.Fatalf("cliente não foi substituído: %v", o.Especificacoes.Valores)
	}
	if !reflect.DeepEqual(o.ChecksConcluidos, []string{"Bicos"}) {
		t.Fatalf("checklist não sobreviveu à regravação: %v", o.ChecksConcluidos)
	}
	if o.Progresso != 50 {
		t.Fatalf("progresso = %d, want 50", o.Progresso)
	}
	if len(o.Log) != 1 {
		t.Fatalf("log não sobreviveu à regravação: %v", o.Log)
	}
}

func TestUpsertSubstituiLinhaInteira(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	antiga := store.Ordem{
		NumeroOP: "SC-400",
		Cliente:  "ACME",
		CNPJ:     "00.000.000/0001-00",
		Anexo:    "OP_SC-400_foto.png",
	}
	if err := st.UpsertOrdem(ctx, antiga); err != nil {
		t.Fatal(err)
	}

	nova := store.Ordem{NumeroOP: "SC-400", Cliente: "Beta Ltda"}
	if err := st.UpsertOrdem(ctx, nova); err != nil {
		t.Fatal(err)
	}

	o, err := st.GetOrdem(ctx, "SC-400")
	if err != nil {
		t.Fatal(err)
	}
	if o.Cliente != "Beta Ltda" || o.CNPJ != "" || o.Anexo != "" {
		t.Fatalf("campos da linha antiga sobreviveram: %+v", o)
	}
}

func TestAtualizarChecklistProgressoEStatus(t *testing.T) {
	svc, st := novoServico(t)
	ctx := context.Background()

	if err := st.UpsertMaquina(ctx, store.Maquina{
		Nome:      "Envasadora",
		Conjuntos: []string{"Bicos", "Esteira", "Painel"},
	}); err != nil {
		t.Fatal(err)
	}

	est := novaEstrutura(t, "Dados", "Cliente")
	if _, err := svc.Salvar(ctx, Entrada{NumeroOP: "SC-500", Equipamento: "Envasadora", Estrutura: est,
		Valores: map[string]string{"Dados.Cliente": "ACME"}}); err != nil {
		t.Fatal(err)
	}

	o, err := svc.AtualizarChecklist(ctx, "SC-500", []string{"Bicos", "Esteira"})
	if err != nil {
		t.Fatal(err)
	}
	if o.Progresso != 67 {
		t.Fatalf("progresso = %d, want 67 (round(100*2/3))", o.Progresso)
	}
	if o.Status != StatusEmProducao {
		t.Fatalf("status = %q, want %q", o.Status, StatusEmProducao)
	}

	o, err = svc.AtualizarChecklist(ctx, "SC-500", []string{"Bicos", "Esteira", "Painel"})
	if err != nil {
		t.Fatal(err)
	}
	if o.Progresso != 100 || o.Status != StatusConcluido {
		t.Fatalf("progresso=%d status=%q, want 100/%q", o.Progresso, o.Status, StatusConcluido)
	}

	// item fora do modelo da máquina não conta
	o, err = svc.AtualizarChecklist(ctx, "SC-500", []string{"Bicos", "Parafuso Fantasma"})
	if err != nil {
		t.Fatal(err)
	}
	if o.Progresso != 33 {
		t.Fatalf("progresso = %d, want 33", o.Progresso)
	}
}

func TestAnexarLogSomenteAcrescenta(t *testing.T) {
	svc, _ := novoServico(t)
	ctx := context.Background()

	est := novaEstrutura(t, "Dados", "Cliente")
	if _, err := svc.Salvar(ctx, Entrada{NumeroOP: "SC-600", Estrutura: est,
		Valores: map[string]string{"Dados.Cliente": "ACME"}}); err != nil {
		t.Fatal(err)
	}

	mensagens := []string{"primeira", "segunda", "terceira"}
	for _, m := range mensagens {
		if _, err := svc.AnexarLog(ctx, "SC-600", "joao", "MONTAGEM", m); err != nil {
			t.Fatal(err)
		}
	}

	o, err := svc.Buscar(ctx, "SC-600")
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Log) != len(mensagens) {
		t.Fatalf("len(log) = %d, want %d", len(o.Log), len(mensagens))
	}
	for i, m := range mensagens {
		if o.Log[i].Mensagem != m {
			t.Fatalf("log[%d] = %q, want %q", i, o.Log[i].Mensagem, m)
		}
		if o.Log[i].Autor != "joao" || o.Log[i].CargoDestino != "MONTAGEM" {
			t.Fatalf("log[%d] autor/destino inesperados: %+v", i, o.Log[i])
		}
	}

	if _, err := svc.AnexarLog(ctx, "SC-600", "joao", "MONTAGEM", "   "); !errors.Is(err, ErrMensagemObrigatoria) {
		t.Fatalf("mensagem vazia: err = %v", err)
	}
}

func TestExcluir(t *testing.T) {
	svc, _ := novoServico(t)
	ctx := context.Background()

	est := novaEstrutura(t, "Dados", "Cliente")
	if _, err := svc.Salvar(ctx, Entrada{NumeroOP: "SC-700", Estrutura: est,
		Valores: map[string]string{"Dados.Cliente": "ACME"}}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Excluir(ctx, "SC-700"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Buscar(ctx, "SC-700"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ordem excluída ainda existe: err = %v", err)
	}
	if err := svc.Excluir(ctx, "SC-700"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("excluir inexistente: err = %v", err)
	}
}

func TestClassificarPrazo(t *testing.T) {
	hoje := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		entrega string
		want    Alerta
	}{
		{"2025-03-15", AlertaVerde},
		{"2025-01-20", AlertaAmarelo},
		{"2025-01-05", AlertaVermelho},
		{"2024-12-01", AlertaVermelho},
		{"10/01/2025", AlertaIndefinido},
		{"", AlertaIndefinido},
	}

	for _, tc := range tests {
		if got, _ := ClassificarPrazo(tc.entrega, hoje); got != tc.want {
			t.Errorf("ClassificarPrazo(%q) = %v, want %v", tc.entrega, got, tc.want)
		}
	}
}
