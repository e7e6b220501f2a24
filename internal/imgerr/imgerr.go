// Package imgerr defines the error kinds reported by the image pipeline.
//
// Every failure surfaced to a client carries one of a small set of kinds so the
// server can map it to a stable machine-readable code while still returning a
// human-readable message:
//
//   - NotFound: a source or watermark file does not exist
//   - InvalidParameter: malformed option (aspect ratio, crop bounds, watermark source)
//   - UnsupportedFormat: an output format outside webp, jpeg, png, avif
//   - NoColorsExtracted: the quantizer produced no swatches
//   - EncodingFailure: the codec rejected the image
//   - IOFailure: a write or mkdir failed
package imgerr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a pipeline error.
type Kind string

const (
	NotFound          Kind = "not_found"
	InvalidParameter  Kind = "invalid_parameter"
	UnsupportedFormat Kind = "unsupported_format"
	NoColorsExtracted Kind = "no_colors_extracted"
	EncodingFailure   Kind = "encoding_failure"
	IOFailure         Kind = "io_failure"
)

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. A target with a
// message only matches the identical message, so package sentinels such as
// ErrMissingWatermarkSource stay distinguishable from their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound          = &Error{Kind: NotFound}
	ErrInvalidParameter  = &Error{Kind: InvalidParameter}
	ErrUnsupportedFormat = &Error{Kind: UnsupportedFormat}
	ErrNoColorsExtracted = &Error{Kind: NoColorsExtracted}
	ErrEncodingFailure   = &Error{Kind: EncodingFailure}
	ErrIOFailure         = &Error{Kind: IOFailure}

	// ErrMissingWatermarkSource is returned when neither text nor image is set.
	ErrMissingWatermarkSource = &Error{
		Kind:    InvalidParameter,
		Message: "watermark requires either text or an image path",
	}
)

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind. The cause is annotated with a stack trace
// so %+v on the returned error shows where it entered the pipeline.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   errors.WithStack(cause),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// is not classified.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
