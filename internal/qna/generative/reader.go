// Package generative implements an extractive reader on top of a hosted LLM.
// The model is prompted to copy spans verbatim; spans that cannot be located
// in the passage are discarded so offsets always index the passage.
package generative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/llm"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Reader is a qna.Model backed by an llm.Client.
type Reader struct {
	client llm.Client
	config qna.ReaderConfig
	tier   llm.ModelTier
}

// New creates a Reader.
func New(client llm.Client, config qna.ReaderConfig, tier llm.ModelTier) *Reader {
	if tier == "" {
		tier = llm.TierFast
	}
	return &Reader{client: client, config: config.WithDefaults(), tier: tier}
}

type spanResponse struct {
	Answers []struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	} `json:"answers"`
}

// FindAnswers asks the hosted model for answer spans.
func (r *Reader) FindAnswers(ctx context.Context, question, passage string) ([]types.AnswerResult, error) {
	prompt := llm.AnswerSpanPrompt(question, passage, r.config.TopK, r.config.MaxAnswerWords)

	raw, err := r.client.GenerateJSON(ctx, prompt, r.tier)
	if err != nil {
		return nil, fmt.Errorf("answer extraction failed: %w", err)
	}

	var resp spanResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse answer spans: %w", err)
	}

	answers := make([]types.AnswerResult, 0, len(resp.Answers))
	for _, a := range resp.Answers {
		text := strings.TrimSpace(a.Text)
		start, end, ok := qna.Locate(passage, text)
		if !ok {
			continue
		}
		answers = append(answers, types.AnswerResult{
			Text:       passage[start:end],
			Score:      clamp(a.Score),
			StartIndex: start,
			EndIndex:   end,
		})
	}
	return qna.Rank(answers, r.config.TopK), nil
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
