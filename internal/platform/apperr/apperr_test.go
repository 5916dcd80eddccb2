// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/memberportal/internal/platform/apperr"
)

/*
TestFromStatus verifies that backend status codes map onto the error taxonomy.
*/
func TestFromStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		message    string
		wantCode   string
		wantMsg    string
		wantStatus int
	}{
		{"unauthorized", http.StatusUnauthorized, "Token is invalid or expired", apperr.CodeUnauthorized, "Token is invalid or expired", http.StatusUnauthorized},
		{"bad_request", http.StatusBadRequest, "Only 2 units available.", apperr.CodeValidation, "Only 2 units available.", http.StatusBadRequest},
		{"not_found_kept_as_client_error", http.StatusNotFound, "", apperr.CodeValidation, "Not Found", http.StatusNotFound},
		{"server_error", http.StatusBadGateway, "", apperr.CodeServer, "Bad Gateway", http.StatusBadGateway},
		{"internal", http.StatusInternalServerError, "boom", apperr.CodeServer, "boom", http.StatusInternalServerError},
		{"redirect_is_backend_fault", http.StatusFound, "", apperr.CodeServer, "Found", http.StatusBadGateway},
		{"informational_is_backend_fault", http.StatusContinue, "", apperr.CodeServer, "Continue", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperr.FromStatus(tt.status, tt.message)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantStatus, err.HTTPStatus)
		})
	}
}

/*
TestAs_Wrapped verifies that AppErrors are found through wrapping layers.
*/
func TestAs_Wrapped(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("backend_call_failed: %w", apperr.Network(cause))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeNetwork, ae.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeNetwork))
	assert.False(t, apperr.HasCode(cause, apperr.CodeNetwork))
	assert.Nil(t, apperr.As(cause))
}

/*
TestFromResponse verifies message extraction from the backend's error bodies.
*/
func TestFromResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantFields  []string
	}{
		{"message_key", http.StatusNotFound, `{"message": "Item does not exist."}`, "Item does not exist.", nil},
		{"detail_key", http.StatusUnauthorized, `{"detail": "Token is invalid or expired", "code": "token_not_valid"}`, "Token is invalid or expired", nil},
		{"field_errors", http.StatusBadRequest, `{"password": ["This field is required."], "email": ["Enter a valid email address."]}`, "Validation failed", []string{"email", "password"}},
		{"not_json", http.StatusBadGateway, `<html>bad gateway</html>`, "Bad Gateway", nil},
		{"empty_body", http.StatusInternalServerError, ``, "Internal Server Error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperr.FromResponse(tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.status, err.HTTPStatus)

			var fields []string
			for _, detail := range err.Details {
				fields = append(fields, detail.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}
