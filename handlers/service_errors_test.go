package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/services"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{
			name:            "not found error",
			err:             services.ErrSessionNotFound,
			expectedStatus:  http.StatusNotFound,
			expectedError:   "not_found",
			expectedMessage: "session not found",
		},
		{
			name:            "validation error",
			err:             services.ErrInvalidView,
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "bad_request",
			expectedMessage: "unknown view",
		},
		{
			name:           "forbidden error",
			err:            services.NewDomainError(services.ErrorTypeForbidden, "not for this role", nil),
			expectedStatus: http.StatusForbidden,
			expectedError:  "forbidden",
		},
		{
			name:            "internal error hides cause",
			err:             services.WrapInternal("query failed", errors.New("pq: relation does not exist")),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An internal error occurred",
		},
		{
			name:            "unknown error",
			err:             errors.New("something went wrong"),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response.Error)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, response.Message)
			}
		})
	}
}

func TestHandleServiceError_AccessDenied(t *testing.T) {
	table, err := access.NewPermissionTable(access.DefaultPolicy())
	require.NoError(t, err)
	_, denial := access.NewController(table).OnViewRequested(models.ViewDeveloper, models.RoleClinician)
	require.Error(t, denial)

	var denied *access.AccessDeniedError
	require.ErrorAs(t, denial, &denied)

	err = services.NewDomainError(services.ErrorTypeForbidden, denied.Message(), denial).
		WithDetail("role", models.RoleClinician).
		WithDetail("view", models.ViewDeveloper)

	w := httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "forbidden", response.Error)
	assert.Equal(t, access.DenialMessage(models.RoleClinician), response.Message)
	assert.Equal(t, "clinician", response.Details["role"])
	assert.Equal(t, "developer", response.Details["view"])
}

func TestHandleServiceError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, nil, zap.NewNop())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleValidationError(t *testing.T) {
	logger := zap.NewNop()

	t.Run("structured validation error", func(t *testing.T) {
		err := utils.ValidateStruct(ChangeRoleRequest{Role: "janitor"})
		require.Error(t, err)

		w := httptest.NewRecorder()
		HandleValidationError(w, err, logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Validation failed", response.Message)
		assert.Contains(t, response.Details, "role")
	})

	t.Run("generic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, errors.New("request body is required"), logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "request body is required", response.Message)
		assert.Nil(t, response.Details)
	})

}
