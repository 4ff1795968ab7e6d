package observability

import (
	"sync"
	"time"
)

// Answer sources counted by Metrics.
const (
	SourceGreeting = "greeting"
	SourceFarewell = "farewell"
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Questions       int64     `json:"questions"`
	Greetings       int64     `json:"greetings"`
	Farewells       int64     `json:"farewells"`
	ModelAnswers    int64     `json:"model_answers"`
	Fallbacks       int64     `json:"fallbacks"`
	InferenceErrors int64     `json:"inference_errors"`
	RejectedInputs  int64     `json:"rejected_inputs"`
	LoadBackend     string    `json:"load_backend,omitempty"`
	LoadMillis      int64     `json:"load_ms"`
	LoadError       string    `json:"load_error,omitempty"`
	Since           time.Time `json:"since"`
}

// Metrics counts assistant activity for one process. Construct it once and
// pass it to whatever records into it.
type Metrics struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewMetrics creates zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{snap: Snapshot{Since: time.Now()}}
}

// RecordAnswer counts one answered question by the path that produced it.
func (m *Metrics) RecordAnswer(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Questions++
	switch source {
	case SourceGreeting:
		m.snap.Greetings++
	case SourceFarewell:
		m.snap.Farewells++
	case SourceModel:
		m.snap.ModelAnswers++
	case SourceFallback:
		m.snap.Fallbacks++
	}
}

// RecordInferenceError counts a turn that ended in an apology.
func (m *Metrics) RecordInferenceError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Questions++
	m.snap.InferenceErrors++
}

// RecordRejected counts a submission ignored by the input guard.
func (m *Metrics) RecordRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.RejectedInputs++
}

// ObserveLoad records the model load outcome.
func (m *Metrics) ObserveLoad(backend string, took time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.LoadBackend = backend
	m.snap.LoadMillis = took.Milliseconds()
	m.snap.LoadError = ""
	if err != nil {
		m.snap.LoadError = err.Error()
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{Since: time.Now()}
}
