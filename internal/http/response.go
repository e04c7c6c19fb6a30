package http

import (
	"encoding/json"
	"net/http"
)

// SuccessEnvelope é o envelope de toda resposta com dados: o campo
// error vem nulo.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope é o envelope das respostas de falha.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve a falha de forma normalizada (code estável para o
// cliente, message legível, details opcional).
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro no mesmo formato usado pelos
// handlers de domínio.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}
