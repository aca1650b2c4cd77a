package service

import (
	"errors"
	"fmt"
)

// Виды ошибок бизнес-логики. Граница HTTP сопоставляет их с кодами ответа.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error описывает ошибку бизнес-логики с сообщением для клиента.
// errors.Is сопоставляет её с одним из видов ошибок пакета.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// NewError создаёт ошибку вида kind с сообщением msg.
func NewError(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func errorf(kind error, format string, args ...any) error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// Message возвращает сообщение для клиента, если err является ошибкой бизнес-логики.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.msg, true
	}
	return "", false
}
