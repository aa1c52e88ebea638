package client

import "errors"

// Sentinel markers for the outcome classes of a processing round trip.
// Callers classify with errors.Is and read the user-facing text from
// RequestError.Message.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrTooLarge             = errors.New("payload too large")
	ErrServerError          = errors.New("server error")
	ErrTransport            = errors.New("transport failure")
	ErrDecoding             = errors.New("response decoding failure")
	ErrInvalidConfiguration = errors.New("processing endpoint not configured")
)

// RequestError pairs an outcome class with the most useful message the
// round trip produced.
type RequestError struct {
	kind    error
	Message string
}

// NewRequestError pairs a sentinel marker with a message.
func NewRequestError(kind error, message string) *RequestError {
	return &RequestError{kind: kind, Message: message}
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.Message
}

func (e *RequestError) Unwrap() error {
	return e.kind
}

// MessageOf extracts the user-facing message from a client error, falling
// back to the raw error text.
func MessageOf(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
