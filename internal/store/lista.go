package store

import "strings"

// SepararLista converte a lista separada por vírgulas usada nas
// colunas de conjuntos em fatia, descartando itens vazios.
func SepararLista(raw string) []string {
	partes := strings.Split(raw, ",")
	out := make([]string, 0, len(partes))
	for _, p := range partes {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JuntarLista serializa a fatia de volta para o formato da coluna.
func JuntarLista(itens []string) string {
	limpos := make([]string, 0, len(itens))
	for _, item := range itens {
		item = strings.TrimSpace(item)
		if item != "" {
			limpos = append(limpos, item)
		}
	}
	return strings.Join(limpos, ",")
}
