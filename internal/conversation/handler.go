package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/zealsham/appointment-ai-agent/internal/appointments"
	"github.com/zealsham/appointment-ai-agent/internal/session"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

// Handler exposes the dialogue engine over HTTP.
type Handler struct {
	engine *Engine
	repo   *appointments.Repository
	log    *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewHandler creates the HTTP handler. repo is optional and only feeds the
// debug endpoint.
func NewHandler(engine *Engine, repo *appointments.Repository, log *logging.Logger) *Handler {
	if engine == nil {
		panic("conversation: engine required")
	}
	if log == nil {
		log = logging.Default()
	}
	return &Handler{
		engine: engine,
		repo:   repo,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// sessionLock serializes turns per session; turns on different sessions run
// concurrently. Entries are a few words each and accumulate per distinct
// session ID for the life of the process; reaping them safely would need
// waiter tracking, which this surface doesn't warrant.
func (h *Handler) sessionLock(sessionID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[sessionID] = lock
	}
	return lock
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type messageResponse struct {
	Response string            `json:"response"`
	Messages []session.Message `json:"messages"`
}

// HandleMessage is POST /api/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	lock := h.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	reply, st, err := h.engine.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.log.Error("handle message failed", "session_id", req.SessionID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Response: reply, Messages: st.Messages})
}

// HandleReset is POST /api/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	lock := h.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	st, err := h.engine.Reset(r.Context(), req.SessionID)
	if err != nil {
		h.log.Error("reset failed", "session_id", req.SessionID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Messages: st.Messages})
}

// HandleHistory is GET /api/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	messages, err := h.engine.History(r.Context(), sessionID)
	if errors.Is(err, session.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"messages": []session.Message{}})
		return
	}
	if err != nil {
		h.log.Error("history failed", "session_id", sessionID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// HandleDebug is GET /api/debug: the session field set, recent messages, and
// the patient's stored appointments.
func (h *Handler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	st, err := h.engine.State(r.Context(), sessionID)
	if errors.Is(err, session.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	payload := map[string]any{
		"session_id":      st.SessionID,
		"fields":          st.Fields,
		"recent_messages": st.RecentMessages(10),
	}
	if h.repo != nil && st.Fields["patientId"] != "" {
		appts, err := h.repo.FetchByPatient(r.Context(), st.Fields["patientId"])
		if err != nil {
			h.log.Warn("debug appointment fetch failed", "error", err)
		} else {
			payload["appointments"] = appts
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
