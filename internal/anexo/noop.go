package anexo

import "io"

// Noop responde erro para qualquer operação, sinalizando que não há
// backend de anexos configurado.
type Noop struct{}

// Salvar sempre falha.
func (Noop) Salvar(string, string, io.Reader) (string, error) {
	return "", ErrNaoConfigurado
}

// Abrir sempre falha.
func (Noop) Abrir(string) (io.ReadCloser, error) {
	return nil, ErrNaoConfigurado
}

// Remover sempre falha.
func (Noop) Remover(string) error {
	return ErrNaoConfigurado
}
