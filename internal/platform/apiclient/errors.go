package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConnectionMessage is shown when the backend could not be reached at all.
const ConnectionMessage = "Erro de conexão com o servidor"

// APIError is the normalised form of every failed backend call. Status is 0
// when no response was received.
type APIError struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend unreachable: %s", e.Message)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Network reports whether the request never got a response.
func (e *APIError) Network() bool { return e.Status == 0 }

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

// Message turns any error into the single line shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func networkError(err error) *APIError {
	return &APIError{Message: ConnectionMessage, Err: err}
}

// validationItem is one entry of a structured "detail" array.
type validationItem struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// decodeError builds an APIError from a non-2xx response body. "detail"
// may be a plain string or a list of field errors; lists are joined
// with "; ".
func decodeError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = fallbackMessage(status)
		return apiErr
	}

	var text string
	var items []validationItem
	switch {
	case len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &text) == nil && text != "":
		apiErr.Message = text
	case len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &items) == nil && len(items) > 0:
		msgs := make([]string, 0, len(items))
		apiErr.Fields = make(map[string]string, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
			if field := fieldName(it.Loc); field != "" {
				apiErr.Fields[field] = it.Msg
			}
		}
		apiErr.Message = strings.Join(msgs, "; ")
	case envelope.Message != "":
		apiErr.Message = envelope.Message
	default:
		apiErr.Message = fallbackMessage(status)
	}
	return apiErr
}

// fieldName takes the last path element of a validation location, skipping
// the "body"/"query" prefix.
func fieldName(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		if s, ok := loc[i].(string); ok && s != "body" && s != "query" && s != "path" {
			return s
		}
	}
	return ""
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
