package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/knowledge"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

type mockFinder struct {
	answer      *types.AnswerResult
	err         error
	calls       int
	lastPassage string
}

func (m *mockFinder) FindAnswer(_ context.Context, _ string, passage string) (*types.AnswerResult, error) {
	m.calls++
	m.lastPassage = passage
	return m.answer, m.err
}

func newPipeline(facts *types.Portfolio, finder *mockFinder) *Pipeline {
	return NewPipeline(NewEngine(finder, knowledge.NewCache(facts)), NewRouter(facts))
}

func TestRespond_GreetingSkipsModel(t *testing.T) {
	finder := &mockFinder{}
	reply, err := newPipeline(sampleFacts(), finder).Respond(context.Background(), "Hello there!")

	require.NoError(t, err)
	assert.Equal(t, GreetingReply, reply.Text)
	assert.Equal(t, SourceGreeting, reply.Source)
	assert.Zero(t, finder.calls)
}

func TestRespond_FarewellSkipsModel(t *testing.T) {
	finder := &mockFinder{}
	reply, err := newPipeline(sampleFacts(), finder).Respond(context.Background(), "thanks a lot")

	require.NoError(t, err)
	assert.Equal(t, FarewellReply, reply.Text)
	assert.Equal(t, SourceFarewell, reply.Source)
	assert.Zero(t, finder.calls)
}

func TestRespond_ModelAnswerIsFormatted(t *testing.T) {
	answer := &types.AnswerResult{Text: "based in  yangon", Score: 0.02}
	finder := &mockFinder{answer: answer}
	facts := sampleFacts()

	reply, err := newPipeline(facts, finder).Respond(context.Background(), "Where is Alice based?")
	require.NoError(t, err)
	assert.Equal(t, "Based in yangon.", reply.Text)
	assert.Equal(t, SourceModel, reply.Source)
	assert.Same(t, answer, reply.Answer)
	assert.Equal(t, knowledge.Compile(facts), finder.lastPassage)
}

func TestRespond_FallbackOnNoAnswer(t *testing.T) {
	finder := &mockFinder{}
	reply, err := newPipeline(sampleFacts(), finder).Respond(context.Background(), "Which project are you proudest of?")

	require.NoError(t, err)
	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, reply.Text, "Minty")
	assert.Equal(t, 1, finder.calls)
}

func TestRespond_FallbackOnBlankAnswer(t *testing.T) {
	finder := &mockFinder{answer: &types.AnswerResult{Text: " \n "}}
	reply, err := newPipeline(sampleFacts(), finder).Respond(context.Background(), "Where did you study?")

	require.NoError(t, err)
	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, reply.Text, "University of Yangon")
}

func TestRespond_SingleProjectEndToEnd(t *testing.T) {
	facts := &types.Portfolio{
		Profile:  types.Profile{Name: "Lin", Title: "Developer"},
		Projects: []types.Project{{Name: "Minty", Category: "web"}},
	}
	reply, err := newPipeline(facts, &mockFinder{}).Respond(context.Background(), "What projects have you built?")

	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Minty")
}

func TestRespond_ModelErrorPropagates(t *testing.T) {
	boom := errors.New("inference failed")
	_, err := newPipeline(sampleFacts(), &mockFinder{err: boom}).Respond(context.Background(), "Where is Alice based?")
	assert.ErrorIs(t, err, boom)
}
