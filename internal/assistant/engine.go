// Package assistant turns a visitor question into one reply: canned greeting
// and farewell handling, model inference over the knowledge passage, answer
// formatting, and topic fallbacks drawn from the Fact Set.
package assistant

import (
	"context"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// AnswerFinder is the loaded model handle. *loader.Loader implements it.
type AnswerFinder interface {
	FindAnswer(ctx context.Context, question, passage string) (*types.AnswerResult, error)
}

// PassageSource yields the compiled passage. *knowledge.Cache implements it.
type PassageSource interface {
	Passage() string
}

// Engine answers questions against one cached passage with a shared model.
type Engine struct {
	finder  AnswerFinder
	passage PassageSource
}

// NewEngine creates an Engine.
func NewEngine(finder AnswerFinder, passage PassageSource) *Engine {
	return &Engine{finder: finder, passage: passage}
}

// Answer returns the model's answer or nil when it found nothing.
func (e *Engine) Answer(ctx context.Context, question string) (*types.AnswerResult, error) {
	return e.finder.FindAnswer(ctx, question, e.passage.Passage())
}
