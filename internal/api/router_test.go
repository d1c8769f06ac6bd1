package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vip-relay/internal/common/logger"
)

type stubHandler struct {
	status int
	seenID string
	panics bool
}

func (s *stubHandler) Handle(c *gin.Context) {
	if s.panics {
		panic("boom")
	}
	s.seenID = c.GetString("requestId")
	c.JSON(s.status, gin.H{"ok": true})
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, opts RouterOptions) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)
	opts.Logger = logger.NewTestLogger(t)
	return NewRouter(opts)
}

func TestRouter_Banner(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Banner, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_Ready(t *testing.T) {
	tests := []struct {
		name         string
		deps         map[string]Pinger
		expectedCode int
	}{
		{name: "no dependencies", expectedCode: http.StatusOK},
		{name: "redis up", deps: map[string]Pinger{"redis": stubPinger{}}, expectedCode: http.StatusOK},
		{
			name:         "redis down",
			deps:         map[string]Pinger{"redis": stubPinger{err: errors.New("dial tcp: refused")}},
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, RouterOptions{Dependencies: tt.deps})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_WebhookRoutesCarryRequestID(t *testing.T) {
	intercom := &stubHandler{status: http.StatusOK}
	freshdesk := &stubHandler{status: http.StatusAccepted}
	r := newTestRouter(t, RouterOptions{Intercom: intercom, Freshdesk: freshdesk})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/intercom-webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, intercom.seenID)
	assert.Equal(t, intercom.seenID, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodPost, "/freshdesk-webhook", strings.NewReader(`{}`))
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "req-123", freshdesk.seenID)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	r := newTestRouter(t, RouterOptions{Intercom: &stubHandler{panics: true}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/intercom-webhook", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestRouter_UnregisteredWebhook(t *testing.T) {
	r := newTestRouter(t, RouterOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/intercom-webhook", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
