// Package ufserrors defines the typed error codes returned by every layer of
// the filesystem core, along with a small wrapper type that lets a caller
// attach context to one of them without losing the ability to compare against
// the original sentinel with errors.Is.
package ufserrors

import "fmt"

// Code is one of the error sentinels surfaced by the filesystem core. It
// implements the error interface directly so it can be returned (and
// compared against with errors.Is) without wrapping.
type Code string

const ErrInvalidInode = Code("invalid inode")
const ErrInvalidType = Code("invalid inode type")
const ErrInvalidName = Code("invalid directory entry name")
const ErrInvalidSize = Code("invalid size")
const ErrNotFound = Code("no such directory entry")
const ErrNotEmpty = Code("directory not empty")
const ErrOutOfSpace = Code("no space left on device")
const ErrIOFailed = Code("input/output error")

func (c Code) Error() string {
	return string(c)
}

// WithMessage returns a new error that reports as "<code>: <message>" but
// still satisfies errors.Is(err, c).
func (c Code) WithMessage(message string) Error {
	return wrapped{code: c, message: fmt.Sprintf("%s: %s", c, message)}
}

// Wrap returns a new error that reports as "<code>: <err>" and satisfies
// errors.Is against both c and err.
func (c Code) Wrap(err error) Error {
	return wrapped{code: c, message: fmt.Sprintf("%s: %s", c, err.Error()), cause: err}
}

// Error is the interface satisfied by both a bare Code and a Code enriched
// with a message or a wrapped cause.
type Error interface {
	error
	WithMessage(message string) Error
	Wrap(err error) Error
}

func (c Code) Is(target error) bool {
	other, ok := target.(Code)
	return ok && other == c
}

type wrapped struct {
	code    Code
	message string
	cause   error
}

func (e wrapped) Error() string {
	return e.message
}

func (e wrapped) WithMessage(message string) Error {
	return wrapped{code: e.code, message: fmt.Sprintf("%s: %s", e.message, message), cause: e.cause}
}

func (e wrapped) Wrap(err error) Error {
	return wrapped{code: e.code, message: fmt.Sprintf("%s: %s", e.message, err.Error()), cause: err}
}

func (e wrapped) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.code
}

func (e wrapped) Is(target error) bool {
	code, ok := target.(Code)
	return ok && code == e.code
}
