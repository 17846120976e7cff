// Package session holds per-conversation state: the message log and the
// accumulating appointment field set.
package session

import "time"

// Identity field keys. Once populated from a profile or one-time manual
// capture they are immutable for the session's lifetime.
var IdentityFields = []string{
	"firstName", "lastName", "custId", "patientId", "name",
	"phone", "email", "gender", "practiceId", "guarId", "specialty",
	"userId", "registrationDate", "lastVisit", "firstVisit",
}

// Transactional field keys, cleared after every terminal outcome.
var TransactionalFields = []string{
	"intent", "date", "time", "reason", "old_date", "old_time",
	"current_date", "current_time",
}

// Message is one turn of the conversation log.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// State is one session's conversation record. Fields uses "" for
// not-yet-known values; every key in the fixed set is always present.
type State struct {
	SessionID string            `json:"session_id"`
	Messages  []Message         `json:"messages"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewState returns a fresh state with the full field key set zeroed.
func NewState(sessionID string) *State {
	fields := make(map[string]string, len(IdentityFields)+len(TransactionalFields))
	for _, k := range IdentityFields {
		fields[k] = ""
	}
	for _, k := range TransactionalFields {
		fields[k] = ""
	}
	now := time.Now().UTC()
	return &State{
		SessionID: sessionID,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the log.
func (s *State) Append(role, text string) {
	s.Messages = append(s.Messages, Message{Role: role, Text: text, Timestamp: time.Now().UTC()})
}

// RecentMessages returns the last n messages in order.
func (s *State) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// HasIdentity reports whether the session already knows who it is talking to.
func (s *State) HasIdentity() bool {
	return s.Fields["name"] != ""
}

// SetIdentity writes identity fields that are still unset. Existing values
// are never overwritten.
func (s *State) SetIdentity(fields map[string]string) {
	for _, k := range IdentityFields {
		if v, ok := fields[k]; ok && v != "" && s.Fields[k] == "" {
			s.Fields[k] = v
		}
	}
}

// ResetTransient clears the transactional fields after a terminal outcome.
// Identity fields and the message log survive.
func (s *State) ResetTransient() {
	for _, k := range TransactionalFields {
		s.Fields[k] = ""
	}
}
