package types

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	// SenderUser marks a message typed by the visitor
	SenderUser Sender = "user"
	// SenderAssistant marks a reply produced by the assistant
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one entry of a session transcript. Messages are never mutated after creation.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage creates a message stamped with a fresh ID and the current time.
func NewChatMessage(sender Sender, text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New(),
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
	}
}

// AnswerResult is an answer span extracted from the knowledge passage.
// A nil *AnswerResult means the model found nothing extractable.
type AnswerResult struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
}

// SubmitRequest is the body of a chat submission.
type SubmitRequest struct {
	Question string `json:"question" validate:"max=2000"`
}

// UIStateRequest changes the visible state of a chat widget.
type UIStateRequest struct {
	State string `json:"state" validate:"required,oneof=open minimized closed"`
}
