// Package relatorio projeta o estado das ordens em um painel tabular
// e nos exports em PDF e Excel. Tudo é recalculado a cada chamada, em
// cima da lista de ordens; nada é materializado.
package relatorio

import (
	"sort"
	"time"

	"github.com/fabricasc/producao/internal/store"
)

const formatoData = "2006-01-02"

// Linha é uma ordem achatada nas colunas fixas do painel.
type Linha struct {
	NumeroOP    string `json:"numero_op"`
	Cliente     string `json:"cliente"`
	Maquina     string `json:"maquina"`
	Lider       string `json:"lider"`
	DataEntrega string `json:"data_entrega"`
	Progresso   int    `json:"progresso"`
}

// Grupo agrega as ordens em andamento de um líder de setor.
type Grupo struct {
	Lider  string  `json:"lider"`
	Ordens []Linha `json:"ordens"`
}

// Painel é a projeção completa servida em /relatorio/painel.
type Painel struct {
	EmAndamento  []Linha `json:"em_andamento"`
	Concluidas   []Linha `json:"concluidas"`
	NaoIniciadas []Linha `json:"nao_iniciadas"`
	PorLider     []Grupo `json:"por_lider"`

	TotalEmProducao int `json:"total_em_producao"`
	LideresAtivos   int `json:"lideres_ativos"`
}

// Montar particiona as ordens por progresso (0 < p < 100 em andamento,
// p == 100 concluída, p == 0 não iniciada) e ordena tudo por data de
// entrega crescente. A distribuição por líder e os totais contam só as
// ordens em andamento; não iniciadas ficam na própria partição.
func Montar(ordens []store.Ordem) Painel {
	var p Painel
	porLider := make(map[string][]Linha)

	for _, o := range ordens {
		l := Linha{
			NumeroOP:    o.NumeroOP,
			Cliente:     o.Cliente,
			Maquina:     o.Equipamento,
			Lider:       o.ResponsavelSetor,
			DataEntrega: o.DataEntrega,
			Progresso:   o.Progresso,
		}
		switch {
		case o.Progresso == 100:
			p.Concluidas = append(p.Concluidas, l)
		case o.Progresso > 0:
			p.EmAndamento = append(p.EmAndamento, l)
			porLider[l.Lider] = append(porLider[l.Lider], l)
		default:
			p.NaoIniciadas = append(p.NaoIniciadas, l)
		}
	}

	ordenarPorEntrega(p.EmAndamento)
	ordenarPorEntrega(p.Concluidas)
	ordenarPorEntrega(p.NaoIniciadas)

	lideres := make([]string, 0, len(porLider))
	for lider := range porLider {
		lideres = append(lideres, lider)
	}
	sort.Strings(lideres)
	for _, lider := range lideres {
		linhas := porLider[lider]
		ordenarPorEntrega(linhas)
		p.PorLider = append(p.PorLider, Grupo{Lider: lider, Ordens: linhas})
	}

	p.TotalEmProducao = len(p.EmAndamento)
	p.LideresAtivos = len(porLider)
	return p
}

// ordenarPorEntrega ordena por data crescente; datas que não parseiam
// vão para o fim, desempate pelo número da OP.
func ordenarPorEntrega(linhas []Linha) {
	sort.SliceStable(linhas, func(i, j int) bool {
		di, oki := parseData(linhas[i].DataEntrega)
		dj, okj := parseData(linhas[j].DataEntrega)
		switch {
		case oki && okj && !di.Equal(dj):
			return di.Before(dj)
		case oki != okj:
			return oki
		default:
			return linhas[i].NumeroOP < linhas[j].NumeroOP
		}
	})
}

func parseData(s string) (time.Time, bool) {
	t, err := time.Parse(formatoData, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
