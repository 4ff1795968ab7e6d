package server

import (
	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/assistant"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/chat"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/portfolio"
)

// SessionDeps are the shared collaborators every chat session is built from.
type SessionDeps struct {
	Facts   *portfolio.Store
	Finder  assistant.AnswerFinder
	Ready   func() bool
	Metrics chat.Recorder
	Logger  *zap.Logger
}

// NewSessionFactory returns a chat.Factory that binds each new session to the
// Fact Set snapshot current at creation time.
func NewSessionFactory(deps SessionDeps) chat.Factory {
	return func(id string) *chat.Session {
		snap := deps.Facts.Current()
		pipeline := assistant.NewPipeline(
			assistant.NewEngine(deps.Finder, snap.Knowledge),
			assistant.NewRouter(snap.Facts),
		)
		return chat.NewSession(id, chat.Deps{
			Responder:    pipeline,
			Ready:        deps.Ready,
			Warm:         snap.Knowledge.Warm,
			Metrics:      deps.Metrics,
			Logger:       deps.Logger,
			FactsVersion: snap.Version,
		})
	}
}
