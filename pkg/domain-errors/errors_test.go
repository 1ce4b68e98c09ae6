package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "item not found")
	wrapped := fmt.Errorf("load: %w", base)

	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeUnauthorized))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, "item not found", MessageOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load item")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load item: connection reset", err.Error())
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestUncodedErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "internal error", MessageOf(err))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:              http.StatusBadRequest,
		CodeInvalidRole:             http.StatusBadRequest,
		CodeUnauthorized:            http.StatusForbidden,
		CodeNotRegistered:           http.StatusForbidden,
		CodeNotFound:                http.StatusNotFound,
		CodeAlreadyRegistered:       http.StatusConflict,
		CodeRequestAlreadyPending:   http.StatusConflict,
		CodeInvalidRoleTransition:   http.StatusUnprocessableEntity,
		CodeInvalidStatusTransition: http.StatusUnprocessableEntity,
		CodeTimeout:                 http.StatusGatewayTimeout,
		CodeInternal:                http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
