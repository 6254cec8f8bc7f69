package shared

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		typ    string
		status int
	}{
		{fmt.Errorf("load: %w", ErrorNotFound), ErrTypeAccountNotFound, http.StatusNotFound},
		{ErrorAlreadyExists, ErrTypeEmailAlreadyRegistered, http.StatusConflict},
		{ErrorInvalidSharedKey, ErrTypeInvalidSharedKey, http.StatusUnauthorized},
		{ErrorValidation, ErrTypeInvalidRequest, http.StatusBadRequest},
		{fmt.Errorf("db down"), ErrTypeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		typ, status := ErrorStatus(tt.err)
		assert.Equal(t, tt.typ, typ)
		assert.Equal(t, tt.status, status)
	}
}

func TestErrorFromType(t *testing.T) {
	assert.ErrorIs(t, ErrorFromType(ErrTypeAccountNotFound, ""), common.ErrAccountNotFound)
	assert.ErrorIs(t, ErrorFromType(ErrTypeEmailAlreadyRegistered, ""), common.ErrEmailTaken)
	assert.ErrorIs(t, ErrorFromType(ErrTypeInvalidSharedKey, ""), common.ErrUnauthorized)
	assert.ErrorIs(t, ErrorFromType(ErrTypeInvalidRequest, "bad json"), ErrorValidation)
	assert.ErrorIs(t, ErrorFromType("Whatever", ""), common.ErrKeystoreUnavailable)
	assert.EqualError(t, ErrorFromType(ErrTypeAccountNotFound, "no such id"), "keystore: account not found: no such id")
}
