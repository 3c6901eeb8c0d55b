package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures
type ErrorKind string

const (
	KindInvalidDocument    ErrorKind = "InvalidDocumentError"
	KindUnknownRegulation  ErrorKind = "UnknownRegulationError"
	KindSegmentation       ErrorKind = "SegmentationError"
	KindServiceTimeout     ErrorKind = "ServiceTimeoutError"
	KindServiceUnavailable ErrorKind = "ServiceUnavailableError"
	KindUnsupportedFormat  ErrorKind = "UnsupportedFormatError"
	KindExtraction         ErrorKind = "ExtractionError"
	KindInvalidRequest     ErrorKind = "InvalidRequestError"
	KindInternal           ErrorKind = "InternalError"
)

// AnalysisError is an error with a kind from the analysis taxonomy
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is matches any AnalysisError of the same kind, so the sentinels below work with errors.Is
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidDocument    = &AnalysisError{Kind: KindInvalidDocument}
	ErrUnknownRegulation  = &AnalysisError{Kind: KindUnknownRegulation}
	ErrSegmentation       = &AnalysisError{Kind: KindSegmentation}
	ErrServiceTimeout     = &AnalysisError{Kind: KindServiceTimeout}
	ErrServiceUnavailable = &AnalysisError{Kind: KindServiceUnavailable}
	ErrUnsupportedFormat  = &AnalysisError{Kind: KindUnsupportedFormat}
	ErrExtraction         = &AnalysisError{Kind: KindExtraction}
	ErrInvalidRequest     = &AnalysisError{Kind: KindInvalidRequest}
)

// NewError creates an AnalysisError of the given kind
func NewError(kind ErrorKind, format string, args ...any) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an AnalysisError of the given kind wrapping err
func WrapError(kind ErrorKind, err error, format string, args ...any) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first AnalysisError in err's chain
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Detail converts err into its structured form
func Detail(err error) *ErrorDetail {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		msg := ae.Message
		if ae.Err != nil {
			msg = fmt.Sprintf("%s: %v", ae.Message, ae.Err)
		}
		if msg == "" {
			msg = string(ae.Kind)
		}
		return &ErrorDetail{Kind: ae.Kind, Message: msg}
	}
	return &ErrorDetail{Kind: KindInternal, Message: err.Error()}
}

// IsServiceFailure reports whether err came from the text-understanding service
func IsServiceFailure(err error) bool {
	return errors.Is(err, ErrServiceTimeout) || errors.Is(err, ErrServiceUnavailable)
}
