package conversation

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealsham/appointment-ai-agent/internal/appointments"
	"github.com/zealsham/appointment-ai-agent/internal/observability/metrics"
	"github.com/zealsham/appointment-ai-agent/internal/profile"
	"github.com/zealsham/appointment-ai-agent/internal/schedule"
	"github.com/zealsham/appointment-ai-agent/internal/session"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

type scriptedLLM struct {
	replies []string
	calls   int
}

func (s *scriptedLLM) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	if s.calls >= len(s.replies) {
		return LLMResponse{Text: `{"extracted": {}, "missing_fields": [], "response": "Anything else?"}`}, nil
	}
	text := s.replies[s.calls]
	s.calls++
	return LLMResponse{Text: text}, nil
}

type scriptedManager struct {
	outcomes []appointments.Outcome
	requests []appointments.Request
}

func (s *scriptedManager) Process(_ context.Context, req appointments.Request) appointments.Outcome {
	s.requests = append(s.requests, req)
	if len(s.outcomes) == 0 {
		return appointments.Outcome{Code: appointments.CodeMissingInfo}
	}
	out := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return out
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		FirstName: "John", LastName: "Doe", CustID: "1", PatientID: "2",
		Email: "john@example.com",
	}
}

func newTestEngine(t *testing.T, llm LLMClient, mgr TransactionManager, prof *profile.Profile) *Engine {
	t.Helper()
	return NewEngine(EngineConfig{
		Store:      session.NewMemoryStore(),
		LLM:        llm,
		Manager:    mgr,
		Profile:    prof,
		Reconciler: Reconciler{Fallback: schedule.FallbackParser{DefaultYear: 2025}},
		Logger:     logging.New("error"),
	})
}

func TestHandleMessageBookingFlow(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "book", "date": "2025-04-10", "time": "09:00:00", "reason": "headache"}, "missing_fields": [], "response": "Booking now."}`,
	}}
	mgr := &scriptedManager{outcomes: []appointments.Outcome{
		{Code: appointments.CodeConfirmed, Date: "2025-04-10", Time: "09:00:00"},
	}}
	engine := newTestEngine(t, llm, mgr, testProfile())

	reply, st, err := engine.HandleMessage(context.Background(), "s1", "book me for 10 April at 9am for a headache")
	require.NoError(t, err)

	assert.Contains(t, reply, "confirmed")
	assert.Contains(t, reply, "9:00 AM")

	require.Len(t, mgr.requests, 1)
	req := mgr.requests[0]
	assert.Equal(t, "book", req.Intent)
	assert.Equal(t, "John", req.FirstName)
	assert.Equal(t, "Doe", req.LastName)
	assert.Equal(t, "1", req.CustID)
	assert.Equal(t, "2", req.PatientID)
	assert.Equal(t, "2025-04-10", req.Date)
	assert.Equal(t, "09:00:00", req.Time)
	assert.Equal(t, "headache", req.Reason)

	// Terminal outcome resets transient fields, identity survives.
	assert.Equal(t, "", st.Fields["intent"])
	assert.Equal(t, "", st.Fields["date"])
	assert.Equal(t, "", st.Fields["time"])
	assert.Equal(t, "John Doe", st.Fields["name"])
	assert.Equal(t, "2", st.Fields["patientId"])
}

func TestHandleMessageCancelNotFoundKeepsState(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "cancel", "date": "2025-04-10", "time": "09:00:00"}, "missing_fields": [], "response": "Canceling."}`,
	}}
	mgr := &scriptedManager{outcomes: []appointments.Outcome{
		{Code: appointments.CodeNotFound, Date: "2025-04-10", Time: "09:00:00"},
	}}
	engine := newTestEngine(t, llm, mgr, testProfile())

	reply, st, err := engine.HandleMessage(context.Background(), "s1", "cancel my appointment on 10 April at 9am")
	require.NoError(t, err)

	assert.Contains(t, reply, "Would you like to book a new one?")
	// A non-terminal outcome must not reset the session.
	assert.Equal(t, "cancel", st.Fields["intent"])
	assert.Equal(t, "2025-04-10", st.Fields["date"])
	assert.Equal(t, "09:00:00", st.Fields["time"])
}

func TestHandleMessageTwoPhaseUpdate(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "update", "old_date": "2025-04-10", "old_time": "09:00:00"}, "missing_fields": [], "response": "Let me look that up."}`,
		`{"extracted": {"date": "2025-04-12", "time": "11:00:00"}, "missing_fields": [], "response": "Moving it."}`,
	}}
	mgr := &scriptedManager{outcomes: []appointments.Outcome{
		{Code: appointments.CodeFetched, Date: "2025-04-10", Time: "09:00:00", Reason: "checkup"},
		{Code: appointments.CodeUpdated, Date: "2025-04-12", Time: "11:00:00"},
	}}
	engine := newTestEngine(t, llm, mgr, testProfile())
	ctx := context.Background()

	reply, st, err := engine.HandleMessage(ctx, "s1", "I want to move my appointment on 10 April at 9am")
	require.NoError(t, err)
	assert.Contains(t, reply, "I found your appointment on 2025-04-10 at 9:00 AM")
	assert.Equal(t, "2025-04-10", st.Fields["current_date"])
	assert.Equal(t, "09:00:00", st.Fields["current_time"])

	require.Len(t, mgr.requests, 1)
	assert.Empty(t, mgr.requests[0].Date, "fetch phase carries no new slot")

	reply, st, err = engine.HandleMessage(ctx, "s1", "move it to 2025-04-12 at 11am")
	require.NoError(t, err)
	assert.Contains(t, reply, "updated to 2025-04-12 at 11:00 AM")

	require.Len(t, mgr.requests, 2)
	apply := mgr.requests[1]
	assert.Equal(t, "update", apply.Intent)
	assert.Equal(t, "2025-04-10", apply.OldDate)
	assert.Equal(t, "2025-04-12", apply.Date)
	assert.Equal(t, "11:00:00", apply.Time)

	assert.Equal(t, "", st.Fields["intent"], "terminal update resets the session")
}

func TestHandleMessageInfoQueryShortCircuits(t *testing.T) {
	llm := &scriptedLLM{}
	mgr := &scriptedManager{}
	engine := newTestEngine(t, llm, mgr, testProfile())

	reply, st, err := engine.HandleMessage(context.Background(), "s1", "What's my patient id?")
	require.NoError(t, err)

	assert.Equal(t, "Your patient id is 2.", reply)
	assert.Zero(t, llm.calls, "info queries never reach the extractor")
	assert.Empty(t, mgr.requests)
	assert.Equal(t, "query", st.Fields["intent"])
}

func TestHandleMessageInfoQueryDoesNotClobberIntent(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "cancel"}, "missing_fields": [], "response": "Which date?"}`,
	}}
	mgr := &scriptedManager{}
	engine := newTestEngine(t, llm, mgr, testProfile())
	ctx := context.Background()

	_, _, err := engine.HandleMessage(ctx, "s1", "cancel my appointment")
	require.NoError(t, err)

	_, st, err := engine.HandleMessage(ctx, "s1", "What's my patient id?")
	require.NoError(t, err)
	assert.Equal(t, "cancel", st.Fields["intent"], "a read never alters the transactional intent")
}

func TestHandleMessageAnonymousNameCapture(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {}, "missing_fields": [], "response": "Nice to meet you!"}`,
	}}
	mgr := &scriptedManager{}
	engine := newTestEngine(t, llm, mgr, nil)

	_, st, err := engine.HandleMessage(context.Background(), "s1", "Jane Smith")
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", st.Fields["name"])
	assert.Equal(t, "Jane", st.Fields["firstName"])
	assert.Equal(t, "Smith", st.Fields["lastName"])
	assert.Equal(t, "UNKNOWN", st.Fields["custId"])
	assert.Equal(t, "UNKNOWN", st.Fields["patientId"])
}

func TestNewSessionGreeting(t *testing.T) {
	engine := newTestEngine(t, &scriptedLLM{}, &scriptedManager{}, testProfile())

	st, err := engine.Reset(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Text, "Hi John Doe!")
}

func TestNewSessionWithoutProfilePromptsForName(t *testing.T) {
	engine := newTestEngine(t, &scriptedLLM{}, &scriptedManager{}, nil)

	st, err := engine.Reset(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, namePrompt, st.Messages[0].Text)
}

func TestResetPreservesCapturedIdentity(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {}, "missing_fields": [], "response": "Nice to meet you!"}`,
		`{"extracted": {"intent": "book", "date": "2025-04-10", "time": "09:00:00"}, "missing_fields": [], "response": "Booking now."}`,
	}}
	engine := newTestEngine(t, llm, &scriptedManager{}, nil)
	ctx := context.Background()

	_, _, err := engine.HandleMessage(ctx, "s1", "Jane Smith")
	require.NoError(t, err)
	_, st, err := engine.HandleMessage(ctx, "s1", "book me for 10 April at 9am")
	require.NoError(t, err)
	require.Equal(t, "book", st.Fields["intent"])

	st, err = engine.Reset(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", st.Fields["name"])
	assert.Equal(t, "Jane", st.Fields["firstName"])
	assert.Equal(t, "Smith", st.Fields["lastName"])
	assert.Equal(t, "UNKNOWN", st.Fields["custId"])
	assert.Equal(t, "UNKNOWN", st.Fields["patientId"])

	assert.Equal(t, "", st.Fields["intent"])
	assert.Equal(t, "", st.Fields["date"])
	assert.Equal(t, "", st.Fields["time"])

	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Text, "Hi Jane Smith!")

	// The reset state is what the store now holds, not just the return value.
	st, err = engine.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", st.Fields["name"])
}

func TestResetClearsTransactionalFieldsWithProfile(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "cancel", "date": "2025-04-10"}, "missing_fields": [], "response": "Which time?"}`,
	}}
	engine := newTestEngine(t, llm, &scriptedManager{}, testProfile())
	ctx := context.Background()

	_, _, err := engine.HandleMessage(ctx, "s1", "cancel my appointment on 10 April")
	require.NoError(t, err)

	st, err := engine.Reset(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "John Doe", st.Fields["name"])
	assert.Equal(t, "", st.Fields["intent"])
	assert.Equal(t, "", st.Fields["date"])
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.Messages[0].Text, "Hi John Doe!")
}

func TestTerminalTurnCountsUnderItsIntent(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"extracted": {"intent": "book", "date": "2025-04-10", "time": "09:00:00", "reason": "headache"}, "missing_fields": [], "response": "Booking now."}`,
	}}
	mgr := &scriptedManager{outcomes: []appointments.Outcome{
		{Code: appointments.CodeConfirmed, Date: "2025-04-10", Time: "09:00:00"},
	}}
	reg := prometheus.NewRegistry()
	engine := NewEngine(EngineConfig{
		Store:      session.NewMemoryStore(),
		LLM:        llm,
		Manager:    mgr,
		Profile:    testProfile(),
		Reconciler: Reconciler{Fallback: schedule.FallbackParser{DefaultYear: 2025}},
		Metrics:    metrics.NewConversationMetrics(reg),
		Logger:     logging.New("error"),
	})

	_, _, err := engine.HandleMessage(context.Background(), "s1", "book me for 10 April at 9am for a headache")
	require.NoError(t, err)

	labels := counterLabels(t, reg, "agent_conversation_turns_total")
	assert.Equal(t, "book", labels["intent"], "terminal turns count under the intent that drove them")
	assert.Equal(t, "CONFIRMED", labels["outcome"])
}

// counterLabels gathers the single series of the named counter.
func counterLabels(t *testing.T, reg *prometheus.Registry, name string) map[string]string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		labels := make(map[string]string)
		for _, lp := range f.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		return labels
	}
	t.Fatalf("metric %s not registered", name)
	return nil
}
