package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifica os erros de domínio compartilhados pelos serviços
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindInvalidArgument     Kind = "invalid_argument"
	KindInvalidState        Kind = "invalid_state"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInternal            Kind = "internal"
)

// Sentinelas para uso com errors.Is
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrInvalidState        = &Error{Kind: KindInvalidState}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
)

// Error carrega o tipo do erro, a entidade afetada e o identificador dela
type Error struct {
	Kind   Kind
	Entity string // "event" | "bet"
	ID     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Entity != "" && e.ID != "" {
		msg = fmt.Sprintf("%s '%s': %s", e.Entity, e.ID, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara apenas o Kind, assim errors.Is(err, errs.ErrNotFound) funciona para qualquer entidade
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Msg: "not found"}
}

func Conflict(entity, id, msg string) error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Msg: msg}
}

func InvalidArgument(entity, id, msg string) error {
	return &Error{Kind: KindInvalidArgument, Entity: entity, ID: id, Msg: msg}
}

func InvalidState(entity, id, msg string) error {
	return &Error{Kind: KindInvalidState, Entity: entity, ID: id, Msg: msg}
}

func Upstream(entity, id string, err error) error {
	return &Error{Kind: KindUpstreamUnavailable, Entity: entity, ID: id, Msg: "upstream unavailable", Err: err}
}

// KindOf retorna o Kind do erro ou KindInternal quando não for um erro de domínio
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus mapeia o Kind para o status HTTP padrão
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidArgument:
		return http.StatusBadRequest
	case KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Retryable indica se o chamador pode repetir a operação.
// Erros de domínio são definitivos; upstream e erros internos (banco, rede) podem passar.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindConflict, KindInvalidArgument, KindInvalidState:
		return false
	}
	return err != nil
}
