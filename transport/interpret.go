package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/resource"
)

// Normalized is a successfully interpreted response. Data is nil for an
// empty 2xx body, which callers must treat as a valid outcome.
type Normalized struct {
	StatusCode int
	Data       resource.Value
}

// Interpret classifies a raw transport outcome. It never drops information:
// undecodable bodies are quoted in the error message, and Harbor error
// messages are kept verbatim together with the status code.
func Interpret(status int, body []byte, transportErr error) (Normalized, *faults.TypedError) {
	if transportErr != nil {
		return Normalized{}, &faults.TypedError{
			Category:   faults.NetworkError,
			StatusCode: status,
			Message:    "request failed",
			Cause:      transportErr,
		}
	}

	data, decodeErr := decodeBody(body)
	if decodeErr != nil {
		return Normalized{}, decodeErr.withStatus(status)
	}

	if IsSuccessStatus(status) {
		return Normalized{StatusCode: status, Data: data}, nil
	}

	if message, ok := firstErrorMessage(data); ok {
		return Normalized{}, faults.NewStatusError(
			faults.APIError,
			status,
			fmt.Sprintf("HTTP status code: %d\nMessage: %s", status, message),
		)
	}

	return Normalized{}, faults.NewStatusError(
		faults.UnknownError,
		status,
		fmt.Sprintf("Unknown Response\nHTTP status code: %d", status),
	)
}

// InterpretResponse is Interpret applied to a Response.
func InterpretResponse(response Response) (Normalized, *faults.TypedError) {
	return Interpret(response.StatusCode, response.Body, response.Err)
}

// Message extracts the human-readable message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var typedErr *faults.TypedError
	if errors.As(err, &typedErr) {
		return typedErr.Error()
	}
	return err.Error()
}

type bodyDecodeError struct {
	raw   []byte
	cause error
}

func (e *bodyDecodeError) withStatus(status int) *faults.TypedError {
	return &faults.TypedError{
		Category:   faults.DecodeError,
		StatusCode: status,
		Message:    fmt.Sprintf("response body is not valid JSON: %s", e.raw),
		Cause:      e.cause,
	}
}

func decodeBody(body []byte) (resource.Value, *bodyDecodeError) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, &bodyDecodeError{raw: body, cause: err}
	}
	if decoder.More() {
		return nil, &bodyDecodeError{raw: body, cause: errors.New("unexpected trailing data")}
	}

	normalized, err := resource.Normalize(value)
	if err != nil {
		return nil, &bodyDecodeError{raw: body, cause: err}
	}
	return normalized, nil
}

func firstErrorMessage(data resource.Value) (string, bool) {
	obj, ok := resource.AsObject(data)
	if !ok {
		return "", false
	}
	list, ok := obj["errors"].([]any)
	if !ok || len(list) == 0 {
		return "", false
	}
	entry, ok := list[0].(map[string]any)
	if !ok {
		return "", true
	}
	message, _ := entry["message"].(string)
	return message, true
}
