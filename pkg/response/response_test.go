package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/d60-Lab/zingg/pkg/errors"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	r := gin.New()
	r.GET("/x", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccessAndCreated(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { Success(c, gin.H{"liked": false}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body.Code)
	assert.Equal(t, map[string]interface{}{"liked": false}, body.Data)

	w, _ = serve(t, func(c *gin.Context) { Created(c, gin.H{"liked": true}) })
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantReason string
	}{
		{"validation", appErrors.Validation("cannot_follow_self"), http.StatusBadRequest, "VALIDATION_ERROR", "cannot_follow_self"},
		{"not found wrapped", fmt.Errorf("toggle: %w", appErrors.NotFound("blog_not_found")), http.StatusNotFound, "NOT_FOUND", "blog_not_found"},
		{"conflict", appErrors.Conflict("email_taken"), http.StatusConflict, "CONFLICT", "email_taken"},
		{"unknown", errors.New("dial tcp: refused"), http.StatusInternalServerError, "SERVER_ERROR", "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(t, func(c *gin.Context) { Error(c, tt.err) })
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantReason, body.Reason)
			assert.NotContains(t, w.Body.String(), "dial tcp")
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { InternalError(c, errors.New("pq: password authentication failed")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body.Reason)
	assert.NotContains(t, w.Body.String(), "password")
}
