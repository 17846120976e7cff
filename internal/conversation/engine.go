package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zealsham/appointment-ai-agent/internal/appointments"
	"github.com/zealsham/appointment-ai-agent/internal/observability/metrics"
	"github.com/zealsham/appointment-ai-agent/internal/profile"
	"github.com/zealsham/appointment-ai-agent/internal/session"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

const namePrompt = "I couldn't find your name. Could you please tell me your name?"

// looseNameRE grabs a plausible name from free text during anonymous capture.
var looseNameRE = regexp.MustCompile(`[A-Za-z][A-Za-z ]*`)

// TransactionManager executes appointment mutations. Satisfied by
// *appointments.Manager.
type TransactionManager interface {
	Process(ctx context.Context, req appointments.Request) appointments.Outcome
}

// Engine drives one dialogue turn end to end: state load, extraction,
// reconciliation, transaction, reply composition, state save.
type Engine struct {
	store      session.Store
	llm        LLMClient
	manager    TransactionManager
	profile    *profile.Profile
	reconciler Reconciler
	archive    *ArchiveStore
	metrics    *metrics.ConversationMetrics
	log        *logging.Logger
	tracer     trace.Tracer

	model       string
	maxTokens   int32
	temperature float32
}

// EngineConfig wires the engine's collaborators. Archive and Metrics are
// optional.
type EngineConfig struct {
	Store       session.Store
	LLM         LLMClient
	Manager     TransactionManager
	Profile     *profile.Profile
	Reconciler  Reconciler
	Archive     *ArchiveStore
	Metrics     *metrics.ConversationMetrics
	Logger      *logging.Logger
	Model       string
	MaxTokens   int32
	Temperature float32
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Store == nil {
		panic("conversation: session store required")
	}
	if cfg.LLM == nil {
		panic("conversation: llm client required")
	}
	if cfg.Manager == nil {
		panic("conversation: transaction manager required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return &Engine{
		store:       cfg.Store,
		llm:         cfg.LLM,
		manager:     cfg.Manager,
		profile:     cfg.Profile,
		reconciler:  cfg.Reconciler,
		archive:     cfg.Archive,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
		tracer:      otel.Tracer("agent.internal.conversation"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// HandleMessage processes one user turn and returns the assistant reply
// along with the updated session state.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, userInput string) (string, *session.State, error) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "conversation.handle_message")
	defer span.End()

	st, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}

	// Direct personal-info questions skip the extraction round trip.
	if reply, ok := HandleInfoQuery(userInput, st.Fields); ok {
		st.Append(ChatRoleUser, userInput)
		st.Append(ChatRoleAssistant, reply)
		if st.Fields["intent"] == "" {
			st.Fields["intent"] = "query"
		}
		if err := e.store.Save(ctx, st); err != nil {
			return "", nil, err
		}
		e.archiveTurn(ctx, sessionID, userInput, reply)
		e.metrics.ObserveTurn("query", "", time.Since(started).Seconds())
		return reply, st, nil
	}

	st.Append(ChatRoleUser, userInput)
	e.captureAnonymousName(st, userInput)

	res := e.extract(ctx, st, userInput)
	if res.Recovered {
		e.metrics.ObserveExtractionRecovered()
	}
	e.reconciler.Merge(st, &res, userInput)
	turnIntent := st.Fields["intent"]

	outcome := e.transact(ctx, st)

	reply := ComposeReply(res.Response, outcome, st.Fields)
	outcomeCode := ""
	if outcome != nil {
		outcomeCode = string(outcome.Code)
		e.log.Info("transaction outcome", "session_id", sessionID, "outcome", outcome.String())
		if outcome.Terminal() {
			st.ResetTransient()
		}
	}

	st.Append(ChatRoleAssistant, reply)
	if err := e.store.Save(ctx, st); err != nil {
		return "", nil, err
	}
	e.archiveTurn(ctx, sessionID, userInput, reply)
	e.metrics.ObserveTurn(turnIntent, outcomeCode, time.Since(started).Seconds())
	return reply, st, nil
}

// Reset performs the lifecycle reset: transactional fields clear, identity
// and contact data survive (including anonymously captured names), and the
// message log restarts with a greeting. Unknown sessions are created fresh.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := e.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return e.loadOrCreate(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	st.ResetTransient()
	st.Messages = nil
	st.Append(ChatRoleAssistant, e.greeting(st))
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}
	e.log.Info("session reset", "session_id", sessionID)
	return st, nil
}

// History returns the session's message log.
func (e *Engine) History(ctx context.Context, sessionID string) ([]session.Message, error) {
	st, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return st.Messages, nil
}

// State exposes the session record for the debug surface.
func (e *Engine) State(ctx context.Context, sessionID string) (*session.State, error) {
	return e.store.Get(ctx, sessionID)
}

func (e *Engine) loadOrCreate(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := e.store.Get(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	st = session.NewState(sessionID)
	if e.profile != nil {
		st.SetIdentity(e.profile.Fields())
		e.log.Info("session initialized with profile", "session_id", sessionID, "name", e.profile.Name())
	} else {
		e.log.Info("session initialized without profile", "session_id", sessionID)
	}
	st.Append(ChatRoleAssistant, e.greeting(st))
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// greeting opens a session. With identity on record (profile or anonymous
// capture) it greets by name; otherwise it asks for one.
func (e *Engine) greeting(st *session.State) string {
	if st.Fields["name"] != "" {
		return fmt.Sprintf("Hi %s! How can I help you with your appointments today?", st.Fields["name"])
	}
	return namePrompt
}

// captureAnonymousName takes the first plausible name from the user's input
// when no profile was preloaded. The identifiers degrade to UNKNOWN.
func (e *Engine) captureAnonymousName(st *session.State, userInput string) {
	if st.HasIdentity() || e.profile != nil {
		return
	}
	match := strings.TrimSpace(looseNameRE.FindString(userInput))
	if match == "" {
		return
	}
	parts := strings.Fields(match)
	identity := map[string]string{
		"name":      match,
		"firstName": parts[0],
		"custId":    "UNKNOWN",
		"patientId": "UNKNOWN",
	}
	if len(parts) > 1 {
		identity["lastName"] = parts[len(parts)-1]
	}
	st.SetIdentity(identity)
	e.log.Info("captured name from user input", "name", match)
}

// extract runs the external extraction service and adapts its raw output.
// Extraction failure degrades to an apology turn, never an error.
func (e *Engine) extract(ctx context.Context, st *session.State, userInput string) ExtractionResult {
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      []string{systemMessage},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: buildTurnContext(st, userInput)}},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		e.log.Error("extraction call failed", "error", err)
		return ExtractionResult{Response: fallbackApology, Recovered: true}
	}
	return ParseExtraction(resp.Text)
}

// transact runs the completion-gated transaction phases for the turn. For
// updates the fetch phase fires first (idempotent); the apply phase or the
// book/cancel path then fires when its full field set is present.
func (e *Engine) transact(ctx context.Context, st *session.State) *appointments.Outcome {
	var outcome *appointments.Outcome

	if UpdateFetchReady(st.Fields) && (st.Fields["date"] == "" || st.Fields["time"] == "") {
		out := e.manager.Process(ctx, e.buildRequest(st, true))
		outcome = &out
		if out.Code == appointments.CodeFetched {
			st.Fields["current_date"] = out.Date
			st.Fields["current_time"] = out.Time
			st.Fields["reason"] = out.Reason
		}
	}

	if TransactionReady(st.Fields) {
		out := e.manager.Process(ctx, e.buildRequest(st, false))
		outcome = &out
	}
	return outcome
}

// buildRequest snapshots the session fields into a transaction request.
// fetchOnly omits the new slot so the manager stays in the fetch phase.
func (e *Engine) buildRequest(st *session.State, fetchOnly bool) appointments.Request {
	req := appointments.Request{
		Intent:    st.Fields["intent"],
		FirstName: st.Fields["firstName"],
		LastName:  st.Fields["lastName"],
		CustID:    st.Fields["custId"],
		PatientID: st.Fields["patientId"],
		Name:      st.Fields["name"],
		Email:     st.Fields["email"],
		Reason:    st.Fields["reason"],
		OldDate:   st.Fields["old_date"],
		OldTime:   st.Fields["old_time"],
	}
	if !fetchOnly {
		req.Date = st.Fields["date"]
		req.Time = st.Fields["time"]
	}
	return req
}

func (e *Engine) archiveTurn(ctx context.Context, sessionID, userInput, reply string) {
	if e.archive == nil {
		return
	}
	if err := e.archive.SaveTurn(ctx, sessionID, userInput, reply); err != nil {
		e.log.Warn("archive turn failed", "session_id", sessionID, "error", err)
	}
}
