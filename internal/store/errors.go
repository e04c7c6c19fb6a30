package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
)

// StorageError distingue falha de backend (indisponível, escrita
// rejeitada) de erro de validação; a camada HTTP decide entre retry e
// mensagem ao usuário. O legado engolia essas falhas em silêncio.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapErr embrulha erros de backend em StorageError, preservando
// ErrNotFound para que errors.Is continue funcionando.
func WrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
