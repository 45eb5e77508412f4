// Package apperr is the error taxonomy shared by the remote client and the
// mutation controllers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure by how the client must react to it.
type Kind int

const (
	Unknown Kind = iota
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Network
	Validation
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Network:
		return "network"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Status is the HTTP status when one was
// received, 0 otherwise.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// works regardless of Op or message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Status == 0 && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized = &Error{Kind: Unauthorized}
	ErrForbidden    = &Error{Kind: Forbidden}
	ErrNotFound     = &Error{Kind: NotFound}
	ErrConflict     = &Error{Kind: Conflict}
	ErrNetwork      = &Error{Kind: Network}
	ErrValidation   = &Error{Kind: Validation}
)

// ErrInsufficientFunds rejects a purchase before anything is applied.
var ErrInsufficientFunds = errors.New("insufficient funds")

// New builds a classified error.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewValidationError is shorthand for client-side input rejections.
func NewValidationError(op, msg string) error {
	return New(Validation, op, msg)
}

// InsufficientFunds reports a purchase the balance cannot cover.
func InsufficientFunds(op string, balance, price int) error {
	return &Error{
		Kind: Validation,
		Op:   op,
		Msg:  fmt.Sprintf("insufficient funds: have %d carrots, need %d", balance, price),
		Err:  ErrInsufficientFunds,
	}
}

// FromStatus maps an HTTP status to a Kind. 2xx maps to Unknown and should
// not be passed in.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusConflict:
		return Conflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return Validation
	default:
		return Unknown
	}
}

// KindOf extracts the Kind of err; unclassified errors are Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func IsUnauthorized(err error) bool { return KindOf(err) == Unauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == NotFound }
func IsConflict(err error) bool     { return KindOf(err) == Conflict }
func IsNetwork(err error) bool      { return KindOf(err) == Network }
func IsValidation(err error) bool   { return KindOf(err) == Validation }
