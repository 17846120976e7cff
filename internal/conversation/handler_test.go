package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *scriptedManager) {
	t.Helper()
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "book"}, "missing_fields": ["date"], "response": "What date works?"}`,
	}}
	mgr := &scriptedManager{}
	engine := newTestEngine(t, llm, mgr, testProfile())
	return NewHandler(engine, nil, logging.New("error")), mgr
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleMessageEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.HandleMessage, `{"session_id": "s1", "message": "I want to book"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "What date works?", resp.Response)
	// greeting + user + assistant
	assert.Len(t, resp.Messages, 3)
}

func TestHandleMessageEndpointValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.HandleMessage, `{"message": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.HandleMessage, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResetEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.HandleMessage, `{"session_id": "s1", "message": "I want to book"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.HandleReset, `{"session_id": "s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 1, "reset leaves only the fresh greeting")
}

func TestHandleHistoryEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleMessage, `{"session_id": "s1", "message": "I want to book"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/history?session_id=s1", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 3)
}

func TestHandleHistoryUnknownSessionIsEmpty(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history?session_id=nope", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages": []}`, rec.Body.String())
}

func TestHandleDebugEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleMessage, `{"session_id": "s1", "message": "I want to book"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/debug?session_id=s1", nil)
	rec := httptest.NewRecorder()
	h.HandleDebug(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp["session_id"])
	fields, ok := resp["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "John Doe", fields["name"])
}

// Concurrent turns on one session must serialize; without the per-session
// lock the read-modify-write against the store would drop messages.
func TestConcurrentTurnsOnOneSessionAreSerialized(t *testing.T) {
	engine := newTestEngine(t, &scriptedLLM{}, &scriptedManager{}, testProfile())
	h := NewHandler(engine, nil, logging.New("error"))

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := postJSON(t, h.HandleMessage, `{"session_id": "s1", "message": "hello there"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	messages, err := engine.History(context.Background(), "s1")
	require.NoError(t, err)
	// greeting plus a user/assistant pair per turn
	assert.Len(t, messages, 1+2*turns)
}
