package service

import (
	"errors"
)

// Виды ошибок, по которым handlers выбирают HTTP статус
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUpstream        = errors.New("upstream failure")
)

// kindError - конкретная ошибка бизнес-логики, принадлежащая одному виду
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Ошибки бизнес-логики для обработки в handlers
var (
	ErrOrderNotFound     = newError(ErrNotFound, "order not found")
	ErrProductNotFound   = newError(ErrNotFound, "product not found")
	ErrUserNotFound      = newError(ErrNotFound, "user not found")
	ErrAlreadyPaid       = newError(ErrConflict, "order is already paid")
	ErrNotPaid           = newError(ErrConflict, "order is not paid")
	ErrInsufficientStock = newError(ErrConflict, "insufficient stock")
	ErrEmailTaken        = newError(ErrConflict, "email is already in use")
	ErrSlugTaken         = newError(ErrConflict, "product slug is already in use")
	ErrAdminDeletion     = newError(ErrUnauthorized, "admin accounts cannot be deleted")
	ErrEmailMismatch     = newError(ErrUnauthorized, "email does not match the account")
	ErrNotOrderOwner     = newError(ErrUnauthorized, "unauthorized access to order")
	ErrAdminRequired     = newError(ErrUnauthorized, "admin privileges required")
	ErrMissingAuthor     = newError(ErrUnauthenticated, "review author is required")
	ErrLoginRequired     = newError(ErrUnauthenticated, "login required")
	ErrInvalidRating     = newError(ErrValidation, "rating must be between 1 and 5")
	ErrEmptyContent      = newError(ErrValidation, "review content is required")
	ErrInvalidPage       = newError(ErrValidation, "page must be positive")
)

// validationError оборачивает ошибку расчёта в вид ErrValidation
func validationError(err error) error {
	return &kindError{kind: ErrValidation, msg: err.Error()}
}
