package anexo

import (
	"io"
	"os"
	"path/filepath"
)

// Local grava anexos em um diretório plano no disco, como o
// aplicativo original fazia com a pasta "anexos".
type Local struct {
	dir string
}

// NewLocal garante o diretório e devolve o armazenador.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

// Salvar grava o arquivo inteiro, sobrescrevendo o que existir.
func (l *Local) Salvar(numeroOP, nomeOriginal string, conteudo io.Reader) (string, error) {
	nome, err := NomeArquivo(numeroOP, nomeOriginal)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(l.dir, nome))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, conteudo); err != nil {
		return "", err
	}
	return nome, nil
}

// Abrir devolve o arquivo para leitura.
func (l *Local) Abrir(nome string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.dir, filepath.Base(nome)))
}

// Remover apaga o arquivo do diretório.
func (l *Local) Remover(nome string) error {
	return os.Remove(filepath.Join(l.dir, filepath.Base(nome)))
}
