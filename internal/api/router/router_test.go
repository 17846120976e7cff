package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealsham/appointment-ai-agent/internal/appointments"
	"github.com/zealsham/appointment-ai-agent/internal/conversation"
	"github.com/zealsham/appointment-ai-agent/internal/schedule"
	"github.com/zealsham/appointment-ai-agent/internal/session"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

type stubLLM struct{}

func (stubLLM) Complete(_ context.Context, _ conversation.LLMRequest) (conversation.LLMResponse, error) {
	return conversation.LLMResponse{
		Text: `{"extracted": {}, "missing_fields": [], "response": "How can I help?"}`,
	}, nil
}

type stubManager struct{}

func (stubManager) Process(_ context.Context, _ appointments.Request) appointments.Outcome {
	return appointments.Outcome{Code: appointments.CodeMissingInfo}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logging.New("error")
	engine := conversation.NewEngine(conversation.EngineConfig{
		Store:      session.NewMemoryStore(),
		LLM:        stubLLM{},
		Manager:    stubManager{},
		Reconciler: conversation.Reconciler{Fallback: schedule.FallbackParser{DefaultYear: 2025}},
		Logger:     log,
	})
	return New(&Config{
		Logger:              log,
		ConversationHandler: conversation.NewHandler(engine, nil, log),
		CORSAllowedOrigins:  []string{"*"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMessageRoute(t *testing.T) {
	body := strings.NewReader(`{"session_id": "s1", "message": "hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/message", body)
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "How can I help?")
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
