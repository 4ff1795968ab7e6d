// Package server provides the HTTP API of the portfolio assistant: the asset
// proxy, model status, knowledge passage and chat sessions.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/chat"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/loader"
)

// ErrSessionNotFound indicates the session expired or never existed.
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("chat session not found: %s", e.SessionID)
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var notFound *ErrSessionNotFound
	var validation *ErrValidation
	var loadErr *loader.LoadError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.Is(err, chat.ErrUnknownUIState):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrModelNotLoaded), errors.As(err, &loadErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
