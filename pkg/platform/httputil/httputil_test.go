package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "marriage-registry/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDesc   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "certificate not found"), http.StatusNotFound, "not_found", "certificate not found"},
		{"unrecognised number", dErrors.New(dErrors.CodeInvalidInput, "unrecognized certificate number"), http.StatusBadRequest, "invalid_input", "unrecognized certificate number"},
		{"validation", dErrors.New(dErrors.CodeValidation, "book_number must be a roman numeral"), http.StatusBadRequest, "validation_error", "book_number must be a roman numeral"},
		{"duplicate", dErrors.New(dErrors.CodeConflict, "certificate already issued"), http.StatusConflict, "conflict", "certificate already issued"},
		{"wrapped domain error", fmt.Errorf("revoke: %w", dErrors.New(dErrors.CodeConflict, "already revoked")), http.StatusConflict, "conflict", "already revoked"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "store timed out"), http.StatusGatewayTimeout, "timeout", "store timed out"},
		{"plain error hides details", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantDesc, body.ErrorDescription)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestDomainCodeToHTTPStatusCoversEveryCode(t *testing.T) {
	codes := []dErrors.Code{
		dErrors.CodeNotFound, dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation,
		dErrors.CodeInternal, dErrors.CodeConflict, dErrors.CodeUnauthorized, dErrors.CodeForbidden,
		dErrors.CodeTimeout, dErrors.CodeInvariantViolation,
	}
	for _, code := range codes {
		status := DomainCodeToHTTPStatus(code)
		if code != dErrors.CodeInternal {
			assert.NotEqual(t, http.StatusInternalServerError, status, "code %s", code)
		}
	}
}
