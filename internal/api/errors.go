package api

import (
	"errors"
	"net/http"
	"sort"

	"clinic-client/internal/errs"
)

// GenericMessage is shown when a failure carries no parseable server envelope.
const GenericMessage = "Something went wrong"

// Error is a non-2xx response, with whatever the server's error envelope
// contained. Message and Fields may both be empty when the body was not
// parseable.
type Error struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *Error) Error() string {
	return "api: " + http.StatusText(e.StatusCode) + ": " + e.DisplayMessage()
}

// Unwrap maps well-known statuses onto sentinels so callers can use errors.Is.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case http.StatusNotFound:
		return errs.ErrNotFound
	}
	return nil
}

// DisplayMessage resolves the single inline message for this error: the
// general message when present, otherwise the first field-level message.
// Field order is made deterministic by sorting keys.
func (e *Error) DisplayMessage() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msgs := e.Fields[k]; len(msgs) > 0 && msgs[0] != "" {
			return msgs[0]
		}
	}
	return GenericMessage
}

// ErrorMessage extracts the user-facing message for any error coming out of
// the client. Transport failures and errors without an envelope degrade to
// the generic fallback.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.DisplayMessage()
	}
	return GenericMessage
}

// errorEnvelope is the wire shape of server-side failures.
type errorEnvelope struct {
	Error *struct {
		Message string              `json:"message"`
		Fields  map[string][]string `json:"fields"`
	} `json:"error"`
}
