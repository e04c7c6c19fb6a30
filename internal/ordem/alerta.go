package ordem

import "time"

// Alerta classifica a proximidade do prazo de entrega de uma ordem.
type Alerta string

const (
	AlertaVerde       Alerta = "verde"       // mais de 30 dias
	AlertaAmarelo     Alerta = "amarelo"     // entre 15 e 30 dias
	AlertaVermelho    Alerta = "vermelho"    // menos de 15 dias ou atrasada
	AlertaIndefinido  Alerta = "indefinido"  // data ilegível
	formatoDataOrdem         = "2006-01-02"  // datas são strings de exibição
)

// ClassificarPrazo aplica a régua de cores da lista de OPs sobre a
// data de entrega, relativa ao dia informado.
func ClassificarPrazo(dataEntrega string, hoje time.Time) (Alerta, int) {
	entrega, err := time.Parse(formatoDataOrdem, dataEntrega)
	if err != nil {
		return AlertaIndefinido, 0
	}

	dias := int(entrega.Sub(hoje.Truncate(24*time.Hour)).Hours() / 24)
	switch {
	case dias > 30:
		return AlertaVerde, dias
	case dias >= 15:
		return AlertaAmarelo, dias
	default:
		return AlertaVermelho, dias
	}
}
