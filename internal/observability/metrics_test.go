package observability

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordAnswer(t *testing.T) {
	m := NewMetrics()

	m.RecordAnswer(SourceGreeting)
	m.RecordAnswer(SourceModel)
	m.RecordAnswer(SourceModel)
	m.RecordAnswer(SourceFallback)
	m.RecordAnswer(SourceFarewell)
	m.RecordInferenceError()
	m.RecordRejected()

	s := m.Snapshot()
	assert.Equal(t, int64(6), s.Questions)
	assert.Equal(t, int64(1), s.Greetings)
	assert.Equal(t, int64(2), s.ModelAnswers)
	assert.Equal(t, int64(1), s.Fallbacks)
	assert.Equal(t, int64(1), s.Farewells)
	assert.Equal(t, int64(1), s.InferenceErrors)
	assert.Equal(t, int64(1), s.RejectedInputs)
}

func TestMetrics_ObserveLoad(t *testing.T) {
	m := NewMetrics()

	m.ObserveLoad("gemini", 1500*time.Millisecond, errors.New("fetch failed"))
	s := m.Snapshot()
	assert.Equal(t, "gemini", s.LoadBackend)
	assert.Equal(t, int64(1500), s.LoadMillis)
	assert.Equal(t, "fetch failed", s.LoadError)

	m.ObserveLoad("cpu", time.Second, nil)
	assert.Empty(t, m.Snapshot().LoadError)
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordAnswer(SourceModel)
	m.Reset()
	assert.Zero(t, m.Snapshot().Questions)
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordAnswer(SourceFallback)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().Fallbacks)
}
