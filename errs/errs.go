// Package errs defines the pipeline error taxonomy. Every failure that
// crosses from a collaborator into core logic is tagged with a Kind at
// that boundary; the top-level handler classifies anything untagged as
// KindUnknown.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which stage family an error belongs to.
type Kind string

const (
	KindContentFetch Kind = "content_fetch"
	KindRendering    Kind = "rendering"
	KindUpload       Kind = "upload"
	KindDistribution Kind = "distribution"
	KindUnknown      Kind = "unknown"
)

// Error is a tagged pipeline error. Context carries structured detail
// (record ids, file paths, remote status payloads) for logging; it is
// never interpreted by control flow.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error with no underlying cause.
func New(kind Kind, message string, ctx map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: ctx}
}

// Wrap tags an underlying error. A nil cause is allowed and treated
// like New.
func Wrap(kind Kind, message string, err error, ctx map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: ctx, Err: err}
}

// Classify returns err as a tagged *Error, wrapping it as KindUnknown
// when no tag is present anywhere in its chain. A nil err returns nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: KindUnknown, Message: "critical failure in automation pipeline", Err: err}
}
