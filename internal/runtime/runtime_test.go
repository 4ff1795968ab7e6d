package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/llm"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
)

type fakeBackend struct {
	name     string
	priority int
	err      error
	setups   int
}

func (f *fakeBackend) Name() string  { return f.name }
func (f *fakeBackend) Priority() int { return f.priority }
func (f *fakeBackend) Setup(context.Context) error {
	f.setups++
	return f.err
}
func (f *fakeBackend) Instantiate(context.Context, *qna.Artifacts) (qna.Model, error) {
	return nil, nil
}

func TestReady_PicksHighestPriority(t *testing.T) {
	low := &fakeBackend{name: "low", priority: 1}
	high := &fakeBackend{name: "high", priority: 5}
	r := New(nil, "", low, high)

	b, err := r.Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "high", b.Name())
	assert.Equal(t, "high", r.Active())
	assert.Equal(t, 0, low.setups)
}

func TestReady_FallsBackWhenSetupFails(t *testing.T) {
	accel := &fakeBackend{name: GeminiName, priority: 20, err: ErrUnavailable}
	cpu := &fakeBackend{name: CPUName, priority: 10}
	r := New(nil, PreferAuto, accel, cpu)

	b, err := r.Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CPUName, b.Name())
}

func TestReady_PreferredFirst(t *testing.T) {
	accel := &fakeBackend{name: GeminiName, priority: 20}
	cpu := &fakeBackend{name: CPUName, priority: 10}
	r := New(nil, CPUName, accel, cpu)

	assert.Equal(t, []string{CPUName, GeminiName}, r.Names())
	b, err := r.Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CPUName, b.Name())
	assert.Equal(t, 0, accel.setups)
}

func TestReady_CachesSelection(t *testing.T) {
	cpu := &fakeBackend{name: CPUName, priority: 10}
	r := New(nil, "", cpu)

	_, err := r.Ready(context.Background())
	require.NoError(t, err)
	_, err = r.Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cpu.setups)
}

func TestReady_AllFail(t *testing.T) {
	boom := errors.New("no device")
	r := New(nil, "", &fakeBackend{name: "a", err: boom}, &fakeBackend{name: "b", err: ErrUnavailable})

	_, err := r.Ready(context.Background())
	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Len(t, setupErr.Attempts, 2)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "no runtime backend available: a: no device; b: backend unavailable", err.Error())
	assert.Equal(t, "", r.Active())
}

func TestReady_NoBackends(t *testing.T) {
	_, err := New(nil, "").Ready(context.Background())
	assert.EqualError(t, err, "no runtime backends registered")
}

func TestCPU_Instantiate(t *testing.T) {
	cpu := NewCPU()
	require.NoError(t, cpu.Setup(context.Background()))

	model, err := cpu.Instantiate(context.Background(), &qna.Artifacts{Manifest: qna.Manifest{Format: "graph-model"}})
	require.NoError(t, err)

	answers, err := model.FindAnswers(context.Background(), "Yangon", "Alice lives in Yangon.")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "Alice lives in Yangon.", answers[0].Text)
}

func TestCPU_InstantiateEmptyManifest(t *testing.T) {
	_, err := NewCPU().Instantiate(context.Background(), &qna.Artifacts{})
	assert.Error(t, err)
}

type stubClient struct{ closed bool }

func (s *stubClient) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	return `{"answers": [{"text": "Yangon", "score": 0.8}]}`, nil
}

func (s *stubClient) Close() error {
	s.closed = true
	return nil
}

func TestGemini_RequiresAPIKey(t *testing.T) {
	g := NewGeminiWithFactory("", llm.TierFast, func(context.Context) (llm.Client, error) {
		t.Fatal("factory must not be called without a key")
		return nil, nil
	})
	assert.ErrorIs(t, g.Setup(context.Background()), ErrUnavailable)
}

func TestGemini_SetupAndInstantiate(t *testing.T) {
	client := &stubClient{}
	g := NewGeminiWithFactory("key", llm.TierFast, func(context.Context) (llm.Client, error) {
		return client, nil
	})

	_, err := g.Instantiate(context.Background(), &qna.Artifacts{Manifest: qna.Manifest{Format: "graph-model"}})
	assert.Error(t, err, "instantiate before setup fails")

	require.NoError(t, g.Setup(context.Background()))
	model, err := g.Instantiate(context.Background(), &qna.Artifacts{Manifest: qna.Manifest{Format: "graph-model"}})
	require.NoError(t, err)

	answers, err := model.FindAnswers(context.Background(), "Where?", "Alice lives in Yangon.")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "Yangon", answers[0].Text)

	require.NoError(t, g.Close())
	assert.True(t, client.closed)
}
