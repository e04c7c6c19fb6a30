package ficha

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestInferirTipo(t *testing.T) {
	tests := []struct {
		nome string
		want TipoCampo
	}{
		{"Cliente", TipoCliente},
		{"Nome do Cliente Final", TipoCliente},
		{"Máquina Principal", TipoMaquina},
		{"Equipamento", TipoMaquina},
		{"Vendedor", TipoVendedor},
		{"Data Entrega", TipoData},
		{"Produção", TipoTexto},
		{"Bicos", TipoTexto},
		{"", TipoTexto},
	}

	for _, tc := range tests {
		if got := InferirTipo(tc.nome); got != tc.want {
			t.Errorf("InferirTipo(%q) = %v, want %v", tc.nome, got, tc.want)
		}
	}
}

func TestSessaoAdicionarSecao(t *testing.T) {
	s := NovaSessao()

	if err := s.AdicionarSecao(""); !errors.Is(err, ErrSecaoObrigatoria) {
		t.Fatalf("seção vazia: err = %v, want ErrSecaoObrigatoria", err)
	}
	if err := s.AdicionarSecao("Dados"); err != nil {
		t.Fatalf("AdicionarSecao: %v", err)
	}
	if err := s.AdicionarSecao("Dados"); !errors.Is(err, ErrSecaoDuplicada) {
		t.Fatalf("seção duplicada: err = %v, want ErrSecaoDuplicada", err)
	}
}

func TestConfirmarRejeitaCampoSemNomeEDuplicado(t *testing.T) {
	s := NovaSessao()
	if err := s.AdicionarSecao("Dados"); err != nil {
		t.Fatal(err)
	}
	if err := s.AdicionarCampo("Dados", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Confirmar(); !errors.Is(err, ErrCampoSemNome) {
		t.Fatalf("campo sem nome: err = %v, want ErrCampoSemNome", err)
	}

	if err := s.RenomearCampo("Dados", 0, "Cliente"); err != nil {
		t.Fatal(err)
	}
	if err := s.AdicionarCampo("Dados", "Cliente"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Confirmar(); !errors.Is(err, ErrChaveDuplicada) {
		t.Fatalf("chave duplicada: err = %v, want ErrChaveDuplicada", err)
	}
}

func TestColetarValoresOrdemEUnicidade(t *testing.T) {
	s := NovaSessao()
	for _, sec := range []string{"Dados", "Logística"} {
		if err := s.AdicionarSecao(sec); err != nil {
			t.Fatal(err)
		}
	}
	for _, campo := range []string{"Cliente", "Data Entrega"} {
		if err := s.AdicionarCampo("Dados", campo); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AdicionarCampo("Logística", "Endereço"); err != nil {
		t.Fatal(err)
	}

	est, err := s.Confirmar()
	if err != nil {
		t.Fatalf("Confirmar: %v", err)
	}

	wantChaves := []string{"Dados.Cliente", "Dados.Data Entrega", "Logística.Endereço"}
	if got := est.Chaves(); !reflect.DeepEqual(got, wantChaves) {
		t.Fatalf("Chaves() = %v, want %v", got, wantChaves)
	}

	valores, err := ColetarValores(est, ProvedorMapa{
		"Dados.Cliente":      "ACME",
		"Dados.Data Entrega": "2025-01-10",
	})
	if err != nil {
		t.Fatalf("ColetarValores: %v", err)
	}
	if len(valores) != est.TotalCampos() {
		t.Fatalf("len(valores) = %d, want %d", len(valores), est.TotalCampos())
	}
	if valores["Dados.Cliente"] != "ACME" || valores["Logística.Endereço"] != "" {
		t.Fatalf("valores inesperados: %v", valores)
	}
}

func TestRenomearCampoNaoMigraValores(t *testing.T) {
	s := NovaSessao()
	if err := s.AdicionarSecao("Dados"); err != nil {
		t.Fatal(err)
	}
	if err := s.AdicionarCampo("Dados", "Cliente"); err != nil {
		t.Fatal(err)
	}
	est, err := s.Confirmar()
	if err != nil {
		t.Fatal(err)
	}

	capturados := map[string]string{"Dados.Cliente": "ACME"}

	// Renomeia depois da captura: o valor antigo fica órfão sob a chave
	// anterior e a nova chave nasce vazia.
	s2 := SessaoDe(est)
	if err := s2.RenomearCampo("Dados", 0, "Comprador"); err != nil {
		t.Fatal(err)
	}
	est2, err := s2.Confirmar()
	if err != nil {
		t.Fatal(err)
	}

	valores, err := ColetarValores(est2, ProvedorMapa(capturados))
	if err != nil {
		t.Fatal(err)
	}
	if valores["Dados.Comprador"] != "" {
		t.Fatalf("valor migrou para a nova chave: %v", valores)
	}
	if capturados["Dados.Cliente"] != "ACME" {
		t.Fatalf("valor órfão foi alterado: %v", capturados)
	}
}

func TestRenomearReinfereTipo(t *testing.T) {
	s := NovaSessao()
	if err := s.AdicionarSecao("Dados"); err != nil {
		t.Fatal(err)
	}
	if err := s.AdicionarCampo("Dados", "Campo 1"); err != nil {
		t.Fatal(err)
	}
	if got := s.Secoes()[0].Campos[0].Tipo; got != TipoTexto {
		t.Fatalf("tipo inicial = %v, want TipoTexto", got)
	}
	if err := s.RenomearCampo("Dados", 0, "Data Emissão"); err != nil {
		t.Fatal(err)
	}
	if got := s.Secoes()[0].Campos[0].Tipo; got != TipoData {
		t.Fatalf("tipo após renomear = %v, want TipoData", got)
	}
}

func TestRemoverCampoESecao(t *testing.T) {
	s := NovaSessao()
	if err := s.AdicionarSecao("Dados"); err != nil {
		t.Fatal(err)
	}
	for _, c := range []string{"A", "B", "C"} {
		if err := s.AdicionarCampo("Dados", c); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RemoverCampo("Dados", 1); err != nil {
		t.Fatal(err)
	}
	est, err := s.Confirmar()
	if err != nil {
		t.Fatal(err)
	}
	if got := est.Chaves(); !reflect.DeepEqual(got, []string{"Dados.A", "Dados.C"}) {
		t.Fatalf("Chaves() = %v", got)
	}

	if err := s.RemoverSecao("Dados"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoverSecao("Dados"); !errors.Is(err, ErrSecaoNaoEncontrada) {
		t.Fatalf("remover seção inexistente: err = %v", err)
	}
}

func TestEstruturaCongeladaIndependeDaSessao(t *testing.T) {
	s := NovaSessao()
	if err := s.AdicionarSecao("Dados"); err != nil {
		t.Fatal(err)
	}
	if err := s.AdicionarCampo("Dados", "Cliente"); err != nil {
		t.Fatal(err)
	}
	est, err := s.Confirmar()
	if err != nil {
		t.Fatal(err)
	}

	// Mudanças posteriores na sessão não afetam a estrutura congelada.
	if err := s.RenomearCampo("Dados", 0, "Outro"); err != nil {
		t.Fatal(err)
	}
	if est.Secoes[0].Campos[0].Nome != "Cliente" {
		t.Fatalf("estrutura congelada mudou: %+v", est)
	}
}

func TestEstruturaJSONPreservaOrdem(t *testing.T) {
	est := EstruturaPadrao()

	raw, err := json.Marshal(est)
	if err != nil {
		t.Fatal(err)
	}
	var volta Estrutura
	if err := json.Unmarshal(raw, &volta); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(est, volta) {
		t.Fatalf("round-trip alterou a estrutura:\n%+v\n%+v", est, volta)
	}
	if !reflect.DeepEqual(est.Chaves(), volta.Chaves()) {
		t.Fatalf("ordem das chaves mudou: %v != %v", est.Chaves(), volta.Chaves())
	}
}
