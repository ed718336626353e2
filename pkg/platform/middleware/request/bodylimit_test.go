package request_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marriage-registry/internal/certificate/handler"
	"marriage-registry/pkg/platform/httputil"
	"marriage-registry/pkg/platform/middleware/request"
)

// verifyEndpoint decodes a verification lookup the way the public handler
// does and echoes the prepared number back.
func verifyEndpoint(reached *bool) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		req, ok := httputil.DecodeAndPrepare[handler.VerifyRequest](w, r, logger, r.Context(), "req-1")
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, req)
	})
}

func postVerify(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/certificates/verify", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBodyLimitOnVerification(t *testing.T) {
	const lookup = `{"certificate_number":" WB-MSD-BRW-I-1-16-2-21 "}`

	t.Run("lookup under the limit is decoded and trimmed", func(t *testing.T) {
		var reached bool
		w := postVerify(request.BodyLimit(1024)(verifyEndpoint(&reached)), lookup)

		require.Equal(t, http.StatusOK, w.Code)
		var got handler.VerifyRequest
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "WB-MSD-BRW-I-1-16-2-21", got.CertificateNumber)
	})

	t.Run("lookup of exactly the limit passes", func(t *testing.T) {
		var reached bool
		w := postVerify(request.BodyLimit(int64(len(lookup)))(verifyEndpoint(&reached)), lookup)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("padded lookup over the limit is rejected before validation", func(t *testing.T) {
		padded := `{"certificate_number":"WBMSDBRWI11621` + strings.Repeat(" ", 256) + `"}`
		var reached bool
		w := postVerify(request.BodyLimit(128)(verifyEndpoint(&reached)), padded)

		assert.True(t, reached)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "bad_request", resp.Error)
		assert.Equal(t, "request body too large", resp.ErrorDescription)
	})

	t.Run("bodiless requests pass through", func(t *testing.T) {
		var served bool
		h := request.BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			served = true
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Empty(t, data)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/certificates/books", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.True(t, served)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
