package relatorio

import (
	"testing"

	"github.com/fabricasc/producao/internal/store"
)

func TestMontarParticionaPorProgresso(t *testing.T) {
	ordens := []store.Ordem{
		{NumeroOP: "OP-1", Progresso: 50, ResponsavelSetor: "CARLOS", DataEntrega: "2025-03-01"},
		{NumeroOP: "OP-2", Progresso: 100, ResponsavelSetor: "CARLOS", DataEntrega: "2025-01-15"},
		{NumeroOP: "OP-3", Progresso: 0, ResponsavelSetor: "MARIA", DataEntrega: "2025-02-01"},
		{NumeroOP: "OP-4", Progresso: 99, ResponsavelSetor: "MARIA", DataEntrega: "2025-01-20"},
	}

	p := Montar(ordens)

	if len(p.EmAndamento) != 2 {
		t.Fatalf("em andamento = %d, quer 2", len(p.EmAndamento))
	}
	if len(p.Concluidas) != 1 || p.Concluidas[0].NumeroOP != "OP-2" {
		t.Fatalf("concluídas erradas: %+v", p.Concluidas)
	}
	if len(p.NaoIniciadas) != 1 || p.NaoIniciadas[0].NumeroOP != "OP-3" {
		t.Fatalf("não iniciadas erradas: %+v", p.NaoIniciadas)
	}

	// entrega mais próxima primeiro
	if p.EmAndamento[0].NumeroOP != "OP-4" || p.EmAndamento[1].NumeroOP != "OP-1" {
		t.Fatalf("ordenação por entrega errada: %+v", p.EmAndamento)
	}

	if p.TotalEmProducao != 2 {
		t.Fatalf("total em produção = %d, quer 2", p.TotalEmProducao)
	}
	if p.LideresAtivos != 2 {
		t.Fatalf("líderes ativos = %d, quer 2", p.LideresAtivos)
	}
}

func TestMontarNaoIniciadaForaDaDistribuicao(t *testing.T) {
	p := Montar([]store.Ordem{
		{NumeroOP: "OP-1", Progresso: 0, ResponsavelSetor: "MARIA", DataEntrega: "2025-02-01"},
	})

	if len(p.NaoIniciadas) != 1 {
		t.Fatalf("não iniciadas = %d, quer 1", len(p.NaoIniciadas))
	}
	if p.TotalEmProducao != 0 {
		t.Fatalf("total em produção = %d, quer 0", p.TotalEmProducao)
	}
	if len(p.PorLider) != 0 || p.LideresAtivos != 0 {
		t.Fatalf("ordem a 0%% entrou na distribuição por líder: grupos=%d ativos=%d",
			len(p.PorLider), p.LideresAtivos)
	}
}

func TestMontarAgrupaPorLider(t *testing.T) {
	ordens := []store.Ordem{
		{NumeroOP: "OP-1", Progresso: 10, ResponsavelSetor: "MARIA", DataEntrega: "2025-05-01"},
		{NumeroOP: "OP-2", Progresso: 20, ResponsavelSetor: "CARLOS", DataEntrega: "2025-04-01"},
		{NumeroOP: "OP-3", Progresso: 30, ResponsavelSetor: "MARIA", DataEntrega: "2025-03-01"},
	}

	p := Montar(ordens)

	if len(p.PorLider) != 2 {
		t.Fatalf("grupos = %d, quer 2", len(p.PorLider))
	}
	if p.PorLider[0].Lider != "CARLOS" || p.PorLider[1].Lider != "MARIA" {
		t.Fatalf("ordem dos grupos errada: %+v", p.PorLider)
	}
	maria := p.PorLider[1]
	if len(maria.Ordens) != 2 || maria.Ordens[0].NumeroOP != "OP-3" {
		t.Fatalf("grupo de MARIA errado: %+v", maria.Ordens)
	}
}

func TestMontarDataInvalidaVaiParaOFim(t *testing.T) {
	ordens := []store.Ordem{
		{NumeroOP: "OP-1", Progresso: 10, DataEntrega: "quando der"},
		{NumeroOP: "OP-2", Progresso: 10, DataEntrega: "2025-06-01"},
	}

	p := Montar(ordens)

	if p.EmAndamento[0].NumeroOP != "OP-2" || p.EmAndamento[1].NumeroOP != "OP-1" {
		t.Fatalf("data inválida deveria ir para o fim: %+v", p.EmAndamento)
	}
}

func TestGerarExcelProduzPlanilha(t *testing.T) {
	p := Montar([]store.Ordem{
		{NumeroOP: "OP-1", Cliente: "ACME", Equipamento: "Envasadora", Progresso: 50, DataEntrega: "2025-03-01"},
	})

	conteudo, err := GerarExcel(p)
	if err != nil {
		t.Fatalf("GerarExcel: %v", err)
	}
	if len(conteudo) == 0 {
		t.Fatal("planilha vazia")
	}
	// assinatura zip do xlsx
	if conteudo[0] != 'P' || conteudo[1] != 'K' {
		t.Fatalf("conteúdo não parece xlsx: %x", conteudo[:4])
	}
}

func TestGerarPDFProduzDocumento(t *testing.T) {
	o := store.Ordem{
		NumeroOP:    "OP-77",
		Cliente:     "ACME",
		Equipamento: "Envasadora",
		DataEntrega: "2025-03-01",
		Status:      "Em Produção",
	}

	conteudo, err := GerarPDF(o)
	if err != nil {
		t.Fatalf("GerarPDF: %v", err)
	}
	if len(conteudo) < 5 || string(conteudo[:5]) != "%PDF-" {
		t.Fatalf("conteúdo não parece PDF")
	}
}
