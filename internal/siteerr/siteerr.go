// Package siteerr defines the error kinds shared by the site pipeline,
// from tenant resolution on the server to page resolution in the storefront.
package siteerr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindTenantNotFound   Kind = "tenant_not_found"
	KindWebsiteDisabled  Kind = "website_disabled"
	KindLayoutNotFound   Kind = "layout_not_found"
	KindPageNotFound     Kind = "page_not_found"
	KindPublishConflict  Kind = "publish_conflict"
	KindConfigLoadFailed Kind = "config_load_failed"
)

// Error is a typed pipeline error. Two errors are considered equal by
// errors.Is when their kinds match.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrTenantNotFound   = &Error{Kind: KindTenantNotFound, Message: "tenant not found"}
	ErrWebsiteDisabled  = &Error{Kind: KindWebsiteDisabled, Message: "website not enabled"}
	ErrLayoutNotFound   = &Error{Kind: KindLayoutNotFound, Message: "layout not found"}
	ErrPageNotFound     = &Error{Kind: KindPageNotFound, Message: "page not found"}
	ErrPublishConflict  = &Error{Kind: KindPublishConflict, Message: "publish conflict"}
	ErrConfigLoadFailed = &Error{Kind: KindConfigLoadFailed, Message: "config load failed"}
)

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNotFound reports whether err means the site itself does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound)
}
