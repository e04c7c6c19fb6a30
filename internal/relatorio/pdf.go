package relatorio

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/fabricasc/producao/internal/ficha"
	"github.com/fabricasc/producao/internal/store"
)

// GerarPDF monta a ficha da OP em PDF: cabeçalho com os dados do
// cliente e do projeto, as especificações técnicas na ordem da
// estrutura congelada (dois campos por linha) e a transcrição do log
// de acompanhamento.
func GerarPDF(o store.Ordem) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("OP "+o.NumeroOP), false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("ORDEM DE PRODUÇÃO Nº %s", o.NumeroOP)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	cabecalho := [][2]string{
		{"Cliente", o.Cliente},
		{"CNPJ", o.CNPJ},
		{"Equipamento", o.Equipamento},
		{"Data da OP", o.DataOP},
		{"Data de Entrega", o.DataEntrega},
		{"Vendedor", o.Vendedor},
		{"Líder do Setor", o.ResponsavelSetor},
		{"Endereço de Entrega", o.EnderecoEntrega},
		{"Assistência", o.Assistencia},
		{"Status", fmt.Sprintf("%s (%d%%)", o.Status, o.Progresso)},
	}
	for _, par := range cabecalho {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 6, tr(par[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(par[1]), "", "L", false)
	}
	pdf.Ln(4)

	for _, secao := range o.Especificacoes.Estrutura.Secoes {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 8, tr(secao.Nome), "1", 1, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for i := 0; i < len(secao.Campos); i += 2 {
			escreverCampoPDF(pdf, tr, secao, o, i)
			if i+1 < len(secao.Campos) {
				escreverCampoPDF(pdf, tr, secao, o, i+1)
			} else {
				pdf.CellFormat(95, 6, "", "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(2)
	}

	if len(o.Log) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr("Acompanhamento"), "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, registro := range o.Log {
			linha := fmt.Sprintf("%s  %s (%s): %s",
				registro.CriadoEm.Format("02/01/2006 15:04"),
				registro.Autor, registro.CargoDestino, registro.Mensagem)
			pdf.MultiCell(0, 5, tr(linha), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escreverCampoPDF(pdf *fpdf.Fpdf, tr func(string) string, secao ficha.Secao, o store.Ordem, idx int) {
	campo := secao.Campos[idx]
	valor := o.Especificacoes.Valores[ficha.Chave(secao.Nome, campo.Nome)]
	pdf.CellFormat(95, 6, tr(fmt.Sprintf("%s: %s", campo.Nome, valor)), "1", 0, "L", false, 0, "")
}
