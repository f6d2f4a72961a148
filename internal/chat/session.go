package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/nabin/internal/providers"
	"github.com/mwiater/nabin/internal/rag"
)

// greetingFormat seeds every new session.
const greetingFormat = "Hé lô %s! Hôm nay anh muốn đi ăn hay đi uống nước nè? 💖"

// Greeting returns the opening assistant turn for userName.
func Greeting(userName string) string {
	return fmt.Sprintf(greetingFormat, userName)
}

// Turn is one message in a session.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is one conversation. Turns are append-only until Clear.
type Session struct {
	mu         sync.Mutex
	id         string
	created    time.Time
	turns      []Turn
	lastResult *rag.RetrievalResult
}

// Snapshot is a point-in-time copy of a session, safe to serialize.
type Snapshot struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	Turns      []Turn               `json:"turns"`
	LastResult *rag.RetrievalResult `json:"last_result"`
}

// NewSession starts a conversation greeted by the assistant.
func NewSession(userName string) *Session {
	now := time.Now().UTC()
	return &Session{
		id:      uuid.NewString(),
		created: now,
		turns:   []Turn{{Role: providers.RoleAssistant, Content: Greeting(userName), At: now}},
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Turns returns a copy of the conversation, oldest first.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns...)
}

// LastResult returns the most recent non-empty retrieval, or nil.
func (s *Session) LastResult() *rag.RetrievalResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil
	}
	cp := *s.lastResult
	return &cp
}

// Clear drops every turn and the last retrieval.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.lastResult = nil
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.id,
		CreatedAt: s.created,
		Turns:     append([]Turn{}, s.turns...),
	}
	if s.lastResult != nil {
		cp := *s.lastResult
		snap.LastResult = &cp
	}
	return snap
}

// history returns the turns as generator messages.
func (s *Session) history() []providers.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]providers.ChatMessage, 0, len(s.turns))
	for _, turn := range s.turns {
		out = append(out, providers.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	return out
}

func (s *Session) append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content, At: time.Now().UTC()})
}

func (s *Session) setLastResult(result rag.RetrievalResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Empty() {
		s.lastResult = nil
		return
	}
	s.lastResult = &result
}
