package apiresponses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/faults"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondNotFound(c, "episode", "ep-123")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "episode not found: ep-123", resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestRespondMissingField(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondMissingField(c, "episodeId")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "missing required field: episodeId", resp.Error)
	assert.Equal(t, "MISSING_FIELD", resp.Code)
}

func TestRespondInternalErrorSanitizesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondInternalError(c, "process escalation", errors.New("kafka broker unreachable"), zap.NewNop().Sugar())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "failed to process escalation", resp.Error)
	assert.NotContains(t, resp.Error, "kafka")
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
}

func TestRespondFault(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"not found", faults.NotFound("episode", "ep-404"), http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", faults.InvalidInput("invalid severity level: extreme"), http.StatusBadRequest, "INVALID_INPUT"},
		{"precondition failed", faults.PreconditionFailed("no triage assessment recorded"), http.StatusPreconditionFailed, "PRECONDITION_FAILED"},
		{"conflict", faults.Conflict("episode was modified concurrently"), http.StatusConflict, "CONFLICT"},
		{"dependency", faults.Dependency("publish notification", errors.New("broker down")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondFault(c, "handle request", tc.err, zap.NewNop().Sugar())

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantTag, decodeError(t, w).Code)
		})
	}
}
