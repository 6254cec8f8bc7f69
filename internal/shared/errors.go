package shared

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
)

// Error type codes carried in {"error": {"type": ...}} responses.
const (
	ErrTypeAccountNotFound        = "AccountNotFound"
	ErrTypeEmailAlreadyRegistered = "EmailAlreadyRegistered"
	ErrTypeInvalidSharedKey       = "InvalidSharedKey"
	ErrTypeInvalidRequest         = "InvalidRequest"
	ErrTypeInternal               = "InternalError"
)

var (
	ErrorNotFound         = errors.New("not found")
	ErrorAlreadyExists    = errors.New("already exists")
	ErrorValidation       = errors.New("validation error")
	ErrorInvalidSharedKey = errors.New("invalid shared key")
)

// ErrorBody is the payload of a keystore error response.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorStatus maps a server-side error to its wire type and HTTP status.
func ErrorStatus(err error) (string, int) {
	switch {
	case errors.Is(err, ErrorNotFound):
		return ErrTypeAccountNotFound, http.StatusNotFound
	case errors.Is(err, ErrorAlreadyExists):
		return ErrTypeEmailAlreadyRegistered, http.StatusConflict
	case errors.Is(err, ErrorInvalidSharedKey):
		return ErrTypeInvalidSharedKey, http.StatusUnauthorized
	case errors.Is(err, ErrorValidation):
		return ErrTypeInvalidRequest, http.StatusBadRequest
	default:
		return ErrTypeInternal, http.StatusInternalServerError
	}
}

// ErrorFromType maps a wire error type to the client-side sentinel.
func ErrorFromType(typ, msg string) error {
	var base error
	switch typ {
	case ErrTypeAccountNotFound:
		base = common.ErrAccountNotFound
	case ErrTypeEmailAlreadyRegistered:
		base = common.ErrEmailTaken
	case ErrTypeInvalidSharedKey:
		base = common.ErrUnauthorized
	case ErrTypeInvalidRequest:
		base = ErrorValidation
	default:
		base = common.ErrKeystoreUnavailable
	}
	if msg == "" {
		return fmt.Errorf("keystore: %w", base)
	}
	return fmt.Errorf("keystore: %w: %s", base, msg)
}
