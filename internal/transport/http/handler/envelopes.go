package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-todo-nosql/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// TokenEnvelope wraps the login response.
type TokenEnvelope struct {
	Token string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// Messages for unexpected failures. Todo routes use the shorter form.
const (
	msgInternal    = "Internal Server Error"
	msgServerError = "Server Error"
)

// writeError maps err to a status code. Domain errors expose their message;
// anything else is a 500 carrying the underlying error text.
func writeError(w http.ResponseWriter, err error) {
	writeErrorAs(w, err, msgInternal)
}

func writeErrorAs(w http.ResponseWriter, err error, internalMsg string) {
	status, msg := httpError(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeJSON(w, status, MessageEnvelope{Message: internalMsg, Error: err.Error()})
		return
	}
	writeMessage(w, status, msg)
}

func httpError(err error) (int, string) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, msgInternal
	}
	msg := de.Msg
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest, msg
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, msg
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msg
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msg
	}
	return http.StatusInternalServerError, msgInternal
}

// decode reads a JSON body into v. An empty body leaves v untouched. Failures
// are 400s that still wrap the json error, so callers can inspect it.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", domain.NewError(domain.ErrBadRequest, "Invalid request body"), err)
	}
	return nil
}

// wrongType reports whether err is a JSON type mismatch on the named member.
func wrongType(err error, field string) bool {
	var te *json.UnmarshalTypeError
	return errors.As(err, &te) && te.Field == field
}
