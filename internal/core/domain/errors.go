package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrMimeMismatch         = errors.New("mime mismatch")
	ErrModelUnavailable     = errors.New("model unavailable")
	ErrEmptyExtraction      = errors.New("empty extraction")
	ErrClassificationFailed = errors.New("classification failed")
	ErrMissingFile          = errors.New("missing file")
	ErrEmptyFilename        = errors.New("empty filename")
)

type ErrorKind string

const (
	KindUnsupportedFormat    ErrorKind = "UnsupportedFormat"
	KindMimeMismatch         ErrorKind = "MimeMismatch"
	KindModelUnavailable     ErrorKind = "ModelUnavailable"
	KindEmptyExtraction      ErrorKind = "EmptyExtraction"
	KindClassificationFailed ErrorKind = "ClassificationFailed"
	KindMissingFile          ErrorKind = "MissingFile"
	KindEmptyFilename        ErrorKind = "EmptyFilename"
	KindInternal             ErrorKind = "Internal"
)

var kinds = []struct {
	sentinel error
	kind     ErrorKind
}{
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrMimeMismatch, KindMimeMismatch},
	{ErrModelUnavailable, KindModelUnavailable},
	{ErrEmptyExtraction, KindEmptyExtraction},
	{ErrClassificationFailed, KindClassificationFailed},
	{ErrMissingFile, KindMissingFile},
	{ErrEmptyFilename, KindEmptyFilename},
}

// Error is a validation failure whose Message is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" && e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// ClientMessage returns the message a caller should see for err.
func ClientMessage(err error) string {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Error()
	}
	return err.Error()
}
