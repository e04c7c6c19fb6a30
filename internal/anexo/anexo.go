// Package anexo armazena o arquivo anexado a cada ordem (foto ou
// documento). O nome físico segue o padrão legado:
// OP_{numero_op}_{arquivo}, com espaços trocados por underscore.
package anexo

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNomeObrigatorio indica upload sem nome de arquivo.
	ErrNomeObrigatorio = errors.New("anexo: nome do arquivo obrigatório")
	// ErrNaoConfigurado indica ausência de backend de anexos.
	ErrNaoConfigurado = errors.New("anexo: armazenamento não configurado")
)

// Armazenador define o backend de arquivos de anexo.
type Armazenador interface {
	// Salvar grava o conteúdo e devolve o nome físico gerado.
	// Sobrescreve sem aviso, como o sistema original.
	Salvar(numeroOP, nomeOriginal string, conteudo io.Reader) (string, error)
	// Abrir devolve o conteúdo do anexo para download.
	Abrir(nome string) (io.ReadCloser, error)
	// Remover apaga o arquivo físico.
	Remover(nome string) error
}

// NomeArquivo monta o nome físico do anexo de uma ordem.
func NomeArquivo(numeroOP, original string) (string, error) {
	original = strings.TrimSpace(original)
	if original == "" {
		return "", ErrNomeObrigatorio
	}
	nome := fmt.Sprintf("OP_%s_%s", numeroOP, original)
	return strings.ReplaceAll(nome, " ", "_"), nil
}
