// Package apperr defines the error taxonomy every request funnels
// through before a response is written.
package apperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota
	KindPermission
	KindConflict
	KindNotFound
	KindServer
)

// The permission message is deliberately uniform so a caller cannot tell
// whether a resource exists or who owns it.
const PermissionMessage = "The request was not made by an authenticated User satisfying the authorization criteria."

const serverMessage = "An unexpected error occurred."

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Permission() error {
	return &Error{Kind: KindPermission, Message: PermissionMessage}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Server(err error) error {
	return &Error{Kind: KindServer, Message: serverMessage, Err: err}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func status(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Classify maps any error to a typed outcome and its HTTP status. Already
// classified errors pass through; anything else becomes a generic Server
// error. The original error is logged here and never echoed to the client.
func Classify(logger *slog.Logger, err error) (int, *Error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Server(err).(*Error)
	}

	level := slog.LevelWarn
	if e.Kind == KindServer {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "request error",
		slog.Int("status", status(e.Kind)),
		slog.String("error", err.Error()),
	)

	return status(e.Kind), e
}
