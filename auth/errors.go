package auth

import (
	"errors"
	"net/http"

	"storefront-core/rest"
)

// OTPError is a failed code verification with the message to show the user.
type OTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *OTPError) Error() string {
	return "verify code: " + e.Message
}

func (e *OTPError) Unwrap() error {
	return e.Err
}

func newOTPError(err error) *OTPError {
	status := rest.StatusCode(err)
	return &OTPError{Status: status, Message: otpMessage(status), Err: err}
}

func otpMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The code is invalid. Check it and try again."
	case http.StatusForbidden, http.StatusGone:
		return "The code has expired. Request a new one."
	case http.StatusUnprocessableEntity:
		return "This code cannot be used for this request."
	case http.StatusTooManyRequests:
		return "Too many attempts. Wait a moment and try again."
	case 0:
		return "Could not reach the server. Check your connection."
	default:
		return "Could not verify the code."
	}
}

// UserMessage returns the user-facing text for err when it is an *OTPError.
func UserMessage(err error) (string, bool) {
	var otpErr *OTPError
	if errors.As(err, &otpErr) {
		return otpErr.Message, true
	}
	return "", false
}
