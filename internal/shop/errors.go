// internal/shop/errors.go
package shop

import (
	"errors"
	"fmt"
	"net/url"

	"hicompanion/internal/gateway"
)

// ErrorKind is the failure taxonomy surfaced to callers. Callers map each
// kind to user-facing copy; nothing here is retried automatically.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	Network
	Unauthenticated
	InsufficientQuantity
	InsufficientFunds
	ItemNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case Network:
		return "network failure"
	case Unauthenticated:
		return "unauthenticated"
	case InsufficientQuantity:
		return "insufficient quantity"
	case InsufficientFunds:
		return "insufficient funds"
	case ItemNotFound:
		return "item not found"
	default:
		return "unknown error"
	}
}

type Error struct {
	Kind ErrorKind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Classify converts a gateway error into the shop taxonomy. Status codes come
// from the structured APIError, never from parsing error strings.
func Classify(err error) *Error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 400:
			return &Error{Kind: InsufficientQuantity, err: err}
		case 401:
			return &Error{Kind: Unauthenticated, err: err}
		case 402:
			return &Error{Kind: InsufficientFunds, err: err}
		case 404:
			return &Error{Kind: ItemNotFound, err: err}
		default:
			return &Error{Kind: Unknown, err: err}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: Network, err: err}
	}

	return &Error{Kind: Unknown, err: err}
}

// KindOf reports the kind of a shop error, or Unknown for anything else.
func KindOf(err error) ErrorKind {
	var shopErr *Error
	if errors.As(err, &shopErr) {
		return shopErr.Kind
	}
	return Unknown
}
