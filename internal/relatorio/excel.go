package relatorio

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GerarExcel serializa o painel em uma planilha XLSX com uma aba por
// partição (Em Andamento, Concluídas, Não Iniciadas).
func GerarExcel(p Painel) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	abas := []struct {
		nome   string
		linhas []Linha
	}{
		{"Em Andamento", p.EmAndamento},
		{"Concluídas", p.Concluidas},
		{"Não Iniciadas", p.NaoIniciadas},
	}

	for i, aba := range abas {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", aba.nome); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(aba.nome); err != nil {
				return nil, err
			}
		}
		if err := escreverAba(f, aba.nome, aba.linhas); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return clonarBuffer(buf), nil
}

func escreverAba(f *excelize.File, aba string, linhas []Linha) error {
	cabecalho := []any{"Nº OP", "Cliente", "Máquina", "Líder", "Entrega", "Progresso %"}
	if err := f.SetSheetRow(aba, "A1", &cabecalho); err != nil {
		return err
	}
	for i, l := range linhas {
		celula := fmt.Sprintf("A%d", i+2)
		valores := []any{l.NumeroOP, l.Cliente, l.Maquina, l.Lider, l.DataEntrega, l.Progresso}
		if err := f.SetSheetRow(aba, celula, &valores); err != nil {
			return err
		}
	}
	return nil
}

func clonarBuffer(b *bytes.Buffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}
