// Package chat implements the per-visitor conversation state: widget
// visibility, the typing guard, and the append-only transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/assistant"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// UIState is the visibility of the chat widget.
type UIState string

const (
	UIClosed    UIState = "closed"
	UIOpen      UIState = "open"
	UIMinimized UIState = "minimized"
)

// ErrUnknownUIState is returned by SetUI for a target outside closed, open and minimized.
var ErrUnknownUIState = errors.New("unknown UI state")

// Responder computes one reply. *assistant.Pipeline implements it.
type Responder interface {
	Respond(ctx context.Context, question string) (assistant.Reply, error)
}

// Recorder receives turn outcomes. *observability.Metrics implements it.
type Recorder interface {
	RecordAnswer(source string)
	RecordInferenceError()
	RecordRejected()
}

// Deps are the collaborators of a Session.
type Deps struct {
	Responder Responder
	// Ready reports whether the model can take questions.
	Ready func() bool
	// Warm prepares the knowledge passage; called when the widget first opens.
	Warm    func()
	Metrics Recorder
	Logger  *zap.Logger
	// FactsVersion identifies the Fact Set snapshot the session is bound to.
	FactsVersion int64
}

// Session is one visitor's chat widget.
type Session struct {
	id   string
	deps Deps

	warmOnce sync.Once

	mu         sync.Mutex
	ui         UIState
	typing     bool
	generation int
	messages   []types.ChatMessage
	createdAt  time.Time
	lastActive time.Time
}

// NewSession creates a closed session with an empty transcript.
func NewSession(id string, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Ready == nil {
		deps.Ready = func() bool { return true }
	}
	now := time.Now()
	return &Session{id: id, deps: deps, ui: UIClosed, createdAt: now, lastActive: now}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// FactsVersion returns the Fact Set snapshot version the session answers from.
func (s *Session) FactsVersion() int64 { return s.deps.FactsVersion }

// Open shows the widget. The first open compiles the knowledge passage.
func (s *Session) Open() UIState {
	s.mu.Lock()
	if s.ui == UIClosed {
		s.ui = UIOpen
	}
	s.touch()
	state := s.ui
	s.mu.Unlock()

	if s.deps.Warm != nil {
		s.warmOnce.Do(s.deps.Warm)
	}
	return state
}

// Minimize collapses an open widget.
func (s *Session) Minimize() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ui == UIOpen {
		s.ui = UIMinimized
	}
	s.touch()
	return s.ui
}

// Restore reopens a minimized widget.
func (s *Session) Restore() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ui == UIMinimized {
		s.ui = UIOpen
	}
	s.touch()
	return s.ui
}

// Close hides the widget. The transcript is kept.
func (s *Session) Close() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui = UIClosed
	s.touch()
	return s.ui
}

// SetUI moves the widget toward target using the allowed transitions.
func (s *Session) SetUI(target UIState) (UIState, error) {
	switch target {
	case UIOpen:
		if s.UI() == UIMinimized {
			return s.Restore(), nil
		}
		return s.Open(), nil
	case UIMinimized:
		return s.Minimize(), nil
	case UIClosed:
		return s.Close(), nil
	}
	return s.UI(), fmt.Errorf("%w %q", ErrUnknownUIState, target)
}

// Submit runs one turn and reports whether the input was accepted. Blank
// input, input while a turn is in progress, and input before the model is
// ready are ignored without touching the transcript.
func (s *Session) Submit(ctx context.Context, text string) bool {
	_, ok := s.Turn(ctx, text)
	return ok
}

// Turn is Submit returning the assistant message that ended the turn. The
// message is nil when the input was rejected or the session was torn down
// while the turn ran.
func (s *Session) Turn(ctx context.Context, text string) (*types.ChatMessage, bool) {
	question := strings.TrimSpace(text)

	s.mu.Lock()
	if question == "" || s.typing || !s.deps.Ready() {
		s.mu.Unlock()
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordRejected()
		}
		return nil, false
	}
	s.messages = append(s.messages, types.NewChatMessage(types.SenderUser, question))
	s.typing = true
	s.touch()
	generation := s.generation
	s.mu.Unlock()

	reply, err := s.respond(ctx, question)

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		s.deps.Logger.Debug("dropping reply for torn down session", zap.String("session_id", s.id))
		return nil, true
	}
	s.typing = false
	s.touch()

	text = reply.Text
	if err != nil {
		s.deps.Logger.Warn("turn failed", zap.String("session_id", s.id), zap.Error(err))
		text = assistant.ApologyReply
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordInferenceError()
		}
	} else if s.deps.Metrics != nil {
		s.deps.Metrics.RecordAnswer(string(reply.Source))
	}

	msg := types.NewChatMessage(types.SenderAssistant, text)
	s.messages = append(s.messages, msg)
	return &msg, true
}

// respond runs the pipeline, turning a panic into an error.
func (s *Session) respond(ctx context.Context, question string) (reply assistant.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panicked: %v", r)
		}
	}()
	return s.deps.Responder.Respond(ctx, question)
}

// Teardown discards the transcript and any reply still being computed.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.messages = nil
	s.typing = false
	s.ui = UIClosed
}

// Messages returns a copy of the transcript in display order.
func (s *Session) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// IsTyping reports whether a turn is in progress.
func (s *Session) IsTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// UI returns the widget state.
func (s *Session) UI() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui
}

// LastActive returns the time of the last interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View is a serializable snapshot of a session.
type View struct {
	ID           string              `json:"id"`
	UI           UIState             `json:"ui"`
	IsTyping     bool                `json:"is_typing"`
	Messages     []types.ChatMessage `json:"messages"`
	FactsVersion int64               `json:"facts_version"`
	CreatedAt    time.Time           `json:"created_at"`
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]types.ChatMessage, len(s.messages))
	copy(msgs, s.messages)
	return View{
		ID:           s.id,
		UI:           s.ui,
		IsTyping:     s.typing,
		Messages:     msgs,
		FactsVersion: s.deps.FactsVersion,
		CreatedAt:    s.createdAt,
	}
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.lastActive = time.Now()
}
