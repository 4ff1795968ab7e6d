package assistant

import (
	"context"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Source names the path that produced a reply.
type Source string

const (
	SourceGreeting Source = "greeting"
	SourceFarewell Source = "farewell"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Reply is the outcome of one turn.
type Reply struct {
	Text   string              `json:"text"`
	Source Source              `json:"source"`
	Answer *types.AnswerResult `json:"answer,omitempty"`
}

// Answerer produces a model answer for a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (*types.AnswerResult, error)
}

// Pipeline applies greeting, farewell, model and fallback in that order.
type Pipeline struct {
	engine Answerer
	router *Router
}

// NewPipeline creates a Pipeline.
func NewPipeline(engine Answerer, router *Router) *Pipeline {
	return &Pipeline{engine: engine, router: router}
}

// Respond computes the reply to question. Errors come only from the model and
// are returned unchanged for the caller to turn into an apology.
func (p *Pipeline) Respond(ctx context.Context, question string) (Reply, error) {
	if text, ok := MatchGreeting(question); ok {
		return Reply{Text: text, Source: SourceGreeting}, nil
	}
	if text, ok := MatchFarewell(question); ok {
		return Reply{Text: text, Source: SourceFarewell}, nil
	}

	answer, err := p.engine.Answer(ctx, question)
	if err != nil {
		return Reply{}, err
	}
	if answer != nil {
		if text := FormatAnswer(answer.Text); text != "" {
			return Reply{Text: text, Source: SourceModel, Answer: answer}, nil
		}
	}
	return Reply{Text: p.router.TopicFallback(question), Source: SourceFallback}, nil
}
