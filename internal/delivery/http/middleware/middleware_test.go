package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"danskegas-backend/internal/delivery/http/response"
	"danskegas-backend/internal/domain"
	"danskegas-backend/pkg/apperror"
	"danskegas-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), RequestID(), RequestLogger(), ErrorHandler())
	r.POST("/test", handler)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var fromCtx string
	r := newEngine(func(c *gin.Context) {
		fromCtx = domain.RequestIDFrom(c.Request.Context())
		response.Success(c, http.StatusOK, "ok", nil)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, fromCtx)
	assert.Equal(t, id, decode(t, w).RequestID)
}

func TestRequestID_KeepsValidIncomingID(t *testing.T) {
	r := newEngine(func(c *gin.Context) { c.Status(http.StatusOK) })
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantDetail string
		wantKind   string
		wantLevel  zapcore.Level
	}{
		{"validation", apperror.Validation("Invalid email address"), http.StatusBadRequest, "Invalid email address", "Invalid email address", "validation", zapcore.WarnLevel},
		{"dispatch hides cause", apperror.Dispatch("Failed to send email. Please try again later.", errors.New("401 bad api key")), http.StatusInternalServerError, "Failed to send email. Please try again later.", "dispatch", "dispatch", zapcore.ErrorLevel},
		{"configuration", apperror.Configuration("reCAPTCHA configuration error. Please contact support.", nil), http.StatusInternalServerError, "reCAPTCHA configuration error. Please contact support.", "configuration", "configuration", zapcore.ErrorLevel},
		{"wrapped", fmt.Errorf("submit: %w", apperror.Validation("Missing required fields")), http.StatusBadRequest, "Missing required fields", "Missing required fields", "validation", zapcore.WarnLevel},
		{"plain error", errors.New("db password is hunter2"), http.StatusInternalServerError, GenericErrorMessage, GenericErrorMessage, "unexpected", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			prev := logger.Log
			logger.Log = zap.New(core)
			t.Cleanup(func() { logger.Log = prev })

			r := newEngine(func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantDetail, body.Error)
			assert.NotContains(t, w.Body.String(), "hunter2")
			assert.NotContains(t, w.Body.String(), "bad api key")

			failed := logs.FilterMessage("request failed").All()
			require.Len(t, failed, 1)
			assert.Equal(t, tt.wantLevel, failed[0].Level)
			assert.Equal(t, tt.wantKind, failed[0].ContextMap()["kind"])
		})
	}
}

func TestRecovery_ReturnsJSON(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, GenericErrorMessage, body.Message)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://danskegas.com", " https://www.danskegas.com/ "}))
	r.POST("/api/send-email", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("preflight allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/send-email", nil)
		req.Header.Set("Origin", "https://www.danskegas.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://www.danskegas.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/send-email", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same origin passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/send-email", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeadersMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
