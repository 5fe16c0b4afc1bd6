package api

import (
	"net/http"
	"strings"

	"github.com/Veraticus/walletflow/internal/common"
)

// User-facing messages for classified failures.
const (
	msgEmailRegistered = "This email address is already registered."
	msgBadRequest      = "Invalid request. Please check your information."
	msgUnauthorized    = "Incorrect email or password, or your session has expired."
	msgForbidden       = "Password is incorrect"
	msgNotFound        = "User with this email address not found."
	msgConflict        = "This email address is already in use."
	msgServer          = "Server error. Please try again later."
	msgTransport       = "Cannot reach the server. Please check your internet connection."
	msgRequest         = "Could not send request. Please try again."
	msgUnknown         = "Something went wrong. Please try again."
)

// classify turns a non-2xx response into an APIError carrying a user message.
func classify(status int, message string) *common.APIError {
	kind := common.KindClient
	if status >= http.StatusInternalServerError {
		kind = common.KindServer
	}

	return &common.APIError{
		Kind:        kind,
		Status:      status,
		Message:     message,
		UserMessage: userMessageFor(status, message),
	}
}

func userMessageFor(status int, message string) string {
	switch {
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "email in use"):
		return msgEmailRegistered
	case status == http.StatusBadRequest:
		return msgBadRequest
	case status == http.StatusUnauthorized:
		return msgUnauthorized
	case status == http.StatusForbidden:
		return msgForbidden
	case status == http.StatusNotFound:
		return msgNotFound
	case status == http.StatusConflict:
		return msgConflict
	case status >= http.StatusInternalServerError:
		return msgServer
	case message != "":
		return message
	default:
		return msgUnknown
	}
}

func transportError(err error) *common.APIError {
	return &common.APIError{
		Kind:        common.KindTransport,
		UserMessage: msgTransport,
		Err:         err,
	}
}

func requestError(err error) *common.APIError {
	return &common.APIError{
		Kind:        common.KindRequest,
		UserMessage: msgRequest,
		Err:         err,
	}
}
