package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("load: %w", NewNotFoundError(EntityRole, int64(7)))

	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("boom")))

	appErr, ok := IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, ErrCodeRoleNotFound, appErr.Code)
	assert.Equal(t, "Could not find role '7'", appErr.Message)
}

func TestNotFoundCodes(t *testing.T) {
	assert.Equal(t, ErrCodeUserNotFound, NewNotFoundError(EntityUser, "alice").Code)
	assert.Equal(t, ErrCodeCardNotFound, NewNotFoundError(EntityProximityCard, "A-1").Code)
	assert.Equal(t, ErrCodeAttendanceNotFound, NewNotFoundError(EntityAttendance, 1).Code)
	assert.Equal(t, ErrorCode("SHIFT_NOT_FOUND"), NewNotFoundError("shift", 1).Code)
	assert.Equal(t, "Could not find proximity card 'A-1'", NewNotFoundError(EntityProximityCard, "A-1").Message)
}

func TestDuplicateKey(t *testing.T) {
	err := NewDuplicateKeyError(EntityUser, "username", "alice")
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.Equal(t, LookupKey{Entity: EntityUser, Field: "username", Key: "alice"}, err.Details)
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError("failed to save", cause)
	assert.Equal(t, "failed to save: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	field := NewValidationFieldError("username", "username is required", ErrCodeRequired)
	assert.Equal(t, "username is required", field.Error())
}

func TestMarshalHidesCause(t *testing.T) {
	err := NewInternalError("failed to save", errors.New("secret dsn"))
	body, jerr := json.Marshal(Response{Error: err})
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"error":{"type":"INTERNAL_ERROR","code":"INTERNAL_ERROR","message":"failed to save"}}`, string(body))

	status, payload := NewInvalidCredentialError("wrong password").ToHTTPResponse()
	assert.Equal(t, http.StatusBadRequest, status)
	assert.IsType(t, Response{}, payload)
}
