// AngelaMos | 2026
// response_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestJSONError_AppError(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONError(rr, fmt.Errorf("wrapped: %w", DuplicateError("email")))

	assert.Equal(t, http.StatusConflict, rr.Code)
	resp := decodeResponse(t, rr)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE", resp.Error.Code)
	assert.Equal(t, "email already exists", resp.Error.Message)
}

func TestJSONError_UnknownErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONError(rr, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "internal server error", resp.Error.Message)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestOK_WrapsData(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]bool{"success": true})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"success":true}}`, rr.Body.String())
}

func TestFormatValidationError(t *testing.T) {
	type payload struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	err := validator.New().Struct(payload{Email: "nope", Password: "short"})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "password must be at least 8 characters")

	assert.Equal(t, "invalid request", FormatValidationError(errors.New("x")))
}
