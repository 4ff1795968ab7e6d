package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/llm"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna/generative"
)

// GeminiName identifies the hosted accelerated backend.
const GeminiName = "gemini"

// ClientFactory opens an llm.Client.
type ClientFactory func(ctx context.Context) (llm.Client, error)

// Gemini extracts answers through the Gemini API.
type Gemini struct {
	apiKey  string
	tier    llm.ModelTier
	factory ClientFactory

	mu     sync.Mutex
	client llm.Client
}

// NewGemini creates the backend. Setup fails with ErrUnavailable when apiKey is empty.
func NewGemini(apiKey string, config *llm.Config, tier llm.ModelTier) *Gemini {
	return &Gemini{
		apiKey: apiKey,
		tier:   tier,
		factory: func(ctx context.Context) (llm.Client, error) {
			return llm.NewGeminiClient(ctx, config, apiKey)
		},
	}
}

// NewGeminiWithFactory creates the backend around a custom client factory.
func NewGeminiWithFactory(apiKey string, tier llm.ModelTier, factory ClientFactory) *Gemini {
	return &Gemini{apiKey: apiKey, tier: tier, factory: factory}
}

func (*Gemini) Name() string { return GeminiName }

func (*Gemini) Priority() int { return 20 }

func (g *Gemini) Setup(ctx context.Context) error {
	if g.apiKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrUnavailable)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return nil
	}
	client, err := g.factory(ctx)
	if err != nil {
		return err
	}
	g.client = client
	return nil
}

func (g *Gemini) Instantiate(_ context.Context, artifacts *qna.Artifacts) (qna.Model, error) {
	if err := artifacts.Validate(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil, fmt.Errorf("gemini backend used before setup")
	}
	return generative.New(g.client, artifacts.Manifest.Config, g.tier), nil
}

// Close releases the API client.
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}
