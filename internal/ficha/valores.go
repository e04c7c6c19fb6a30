package ficha

// Provedor fornece o valor de um campo durante a captura. A camada de
// apresentação (formulário, importação, testes) implementa essa
// interface; o tipo indica qual recurso de entrada oferecer.
type Provedor interface {
	Valor(secao, campo string, tipo TipoCampo) (string, error)
}

// ProvedorMapa resolve valores a partir de um mapa já montado,
// chaveado por "Seção.Campo". Chave ausente vira texto vazio.
type ProvedorMapa map[string]string

// Valor implementa Provedor.
func (p ProvedorMapa) Valor(secao, campo string, _ TipoCampo) (string, error) {
	return p[Chave(secao, campo)], nil
}

// ColetarValores percorre a estrutura congelada na ordem de captura e
// monta o mapa plano de valores: exatamente uma entrada por campo,
// chaves únicas por construção (a confirmação rejeita duplicatas).
func ColetarValores(e Estrutura, p Provedor) (map[string]string, error) {
	valores := make(map[string]string, e.TotalCampos())
	for _, sec := range e.Secoes {
		for _, c := range sec.Campos {
			v, err := p.Valor(sec.Nome, c.Nome, c.Tipo)
			if err != nil {
				return nil, err
			}
			valores[Chave(sec.Nome, c.Nome)] = v
		}
	}
	return valores, nil
}

// Especificacoes reúne a estrutura congelada e os valores capturados;
// é serializada como um único blob por ordem.
type Especificacoes struct {
	Estrutura Estrutura         `json:"estrutura"`
	Valores   map[string]string `json:"valores"`
}

// Capturar congela a coleta: aplica ColetarValores e devolve o par
// estrutura+valores pronto para persistir na ordem.
func Capturar(e Estrutura, p Provedor) (Especificacoes, error) {
	valores, err := ColetarValores(e, p)
	if err != nil {
		return Especificacoes{}, err
	}
	return Especificacoes{Estrutura: e, Valores: valores}, nil
}
