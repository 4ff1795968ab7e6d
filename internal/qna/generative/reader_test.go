package generative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/llm"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
)

type mockClient struct {
	response   string
	err        error
	lastPrompt string
	lastTier   llm.ModelTier
}

func (m *mockClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.lastPrompt = prompt
	m.lastTier = tier
	return m.response, m.err
}

func (m *mockClient) Close() error { return nil }

const passage = "Alice Smith is a Software Engineer based in Yangon. Minty is a web project from 2023."

func TestFindAnswers_LocatesSpans(t *testing.T) {
	client := &mockClient{response: `{"answers": [
		{"text": "a web project", "score": 0.4},
		{"text": "based in Yangon", "score": 1.7},
		{"text": "invented words", "score": 0.99}
	]}`}
	r := New(client, qna.ReaderConfig{}, "")

	answers, err := r.FindAnswers(context.Background(), "Where is Alice?", passage)
	require.NoError(t, err)
	require.Len(t, answers, 2, "spans absent from the passage are dropped")

	assert.Equal(t, "based in Yangon", answers[0].Text)
	assert.Equal(t, 1.0, answers[0].Score)
	assert.Equal(t, answers[0].Text, passage[answers[0].StartIndex:answers[0].EndIndex])
	assert.Equal(t, "a web project", answers[1].Text)

	assert.Equal(t, llm.TierFast, client.lastTier)
	assert.Contains(t, client.lastPrompt, "Question: Where is Alice?")
}

func TestFindAnswers_Empty(t *testing.T) {
	r := New(&mockClient{response: `{"answers": []}`}, qna.ReaderConfig{}, llm.TierAccurate)

	answers, err := r.FindAnswers(context.Background(), "Favourite food?", passage)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestFindAnswers_ClientError(t *testing.T) {
	boom := errors.New("quota exceeded")
	r := New(&mockClient{err: boom}, qna.ReaderConfig{}, "")

	_, err := r.FindAnswers(context.Background(), "q", passage)
	assert.ErrorIs(t, err, boom)
}

func TestFindAnswers_MalformedJSON(t *testing.T) {
	r := New(&mockClient{response: "not json"}, qna.ReaderConfig{}, "")

	_, err := r.FindAnswers(context.Background(), "q", passage)
	assert.ErrorContains(t, err, "failed to parse answer spans")
}
