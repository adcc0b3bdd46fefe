package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the store. Code, Message, Details and
// Hint follow the PostgREST error body; Message falls back to the raw body
// or the status text.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Code != "" {
		return fmt.Sprintf("store error %d [%s]: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("store error %d: %s", e.StatusCode, msg)
}

func parseError(status int, body []byte) error {
	apiErr := &Error{StatusCode: status}

	// GoTrue answers with error_description / msg instead of message.
	var raw struct {
		Code             interface{} `json:"code"`
		Message          string      `json:"message"`
		Msg              string      `json:"msg"`
		ErrorDescription string      `json:"error_description"`
		Details          string      `json:"details"`
		Hint             string      `json:"hint"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		if raw.Code != nil {
			apiErr.Code = fmt.Sprint(raw.Code)
		}
		apiErr.Message = firstNonEmpty(raw.Message, raw.Msg, raw.ErrorDescription)
		apiErr.Details = raw.Details
		apiErr.Hint = raw.Hint
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsStatus(err error, status int) bool {
	return StatusCode(err) == status
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
