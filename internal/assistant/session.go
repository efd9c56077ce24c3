package assistant

import (
	"context"
	"strings"
	"sync"
)

// Message roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Fixed conversation texts.
const (
	GreetingText    = "Hello! I'm your betting assistant. Ask me about upcoming matches, team stats, or value bets."
	PlaceholderText = "Analyzing..."
)

// Message is one entry in a conversation log. The log only ever grows; the
// lone permitted mutation is resolving the trailing placeholder into the
// final bot reply.
type Message struct {
	Role          string
	Text          string
	IsPlaceholder bool
}

// Session owns one conversation: the ordered message log and the in-flight
// guard that keeps exactly one query dispatching at a time. There is no
// queueing of pending queries; a Submit while busy is a silent no-op.
type Session struct {
	dispatcher *Dispatcher

	mu       sync.Mutex
	messages []Message
	inFlight bool
}

// NewSession creates a session opening with the assistant greeting.
func NewSession(d *Dispatcher) *Session {
	return &Session{
		dispatcher: d,
		messages:   []Message{{Role: RoleBot, Text: GreetingText}},
	}
}

// Submit runs one query through the dispatcher. It appends the user message
// and a placeholder bot message, dispatches, then resolves the placeholder
// with the reply (or the fixed apology, which the dispatcher already
// produced on failure). Ignored while a previous query is still in flight,
// so replies land in the exact order their queries were accepted.
func (s *Session) Submit(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.messages = append(s.messages,
		Message{Role: RoleUser, Text: text},
		Message{Role: RoleBot, Text: PlaceholderText, IsPlaceholder: true},
	)
	s.mu.Unlock()

	reply := s.dispatcher.Handle(ctx, text)

	s.mu.Lock()
	s.resolvePlaceholder(reply)
	s.inFlight = false
	s.mu.Unlock()
}

// resolvePlaceholder replaces the trailing placeholder message with the
// final reply. Caller holds the lock.
func (s *Session) resolvePlaceholder(reply string) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].IsPlaceholder {
			s.messages[i] = Message{Role: RoleBot, Text: reply}
			return
		}
	}
}

// Messages returns a snapshot of the conversation log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastReply returns the text of the most recent resolved bot message, or ""
// when there is none.
func (s *Session) LastReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.Role == RoleBot && !m.IsPlaceholder {
			return m.Text
		}
	}
	return ""
}

// Busy reports whether a query is currently being dispatched.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
