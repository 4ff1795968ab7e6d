// Package loader owns the lifecycle of the shared QnA model: one load attempt
// per Loader, observable state, and answer extraction once ready.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/interceptor"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/runtime"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// DefaultMinAnswerScore is the lowest score FindAnswer accepts. Zero keeps
// every non-empty top answer, which reads as more conversational at the cost
// of occasionally confident-sounding weak answers.
const DefaultMinAnswerScore = 0.0

// State is the position of a Loader in unloaded → loading → ready|failed.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Status is a snapshot of the loader.
type Status struct {
	State      State     `json:"state"`
	Backend    string    `json:"backend,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Err error `json:"-"`
}

// IsLoading reports whether a load is in flight.
func (s Status) IsLoading() bool { return s.State == StateLoading }

// Ready reports whether the model can answer questions.
func (s Status) Ready() bool { return s.State == StateReady }

// Duration returns how long the finished load took.
func (s Status) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Backends selects the execution backend.
type Backends interface {
	Ready(ctx context.Context) (runtime.Backend, error)
}

// Fetcher downloads model artifacts using the given client.
type Fetcher interface {
	Fetch(ctx context.Context, client *http.Client, modelURL string) (*qna.Artifacts, error)
}

// Observer is told about every finished load.
type Observer interface {
	ObserveLoad(backend string, took time.Duration, err error)
}

// Config configures a Loader.
type Config struct {
	ModelURL string
	// GatewayBase is the origin serving the asset proxy. When set, requests
	// to ProviderHosts are rerouted through it for the duration of the load.
	GatewayBase   string
	ProviderHosts []string
	Transport     http.RoundTripper
	Timeout       time.Duration
	MinScore      float64
	Observer      Observer
}

// Loader performs one model load and serves answers from the result.
type Loader struct {
	cfg      Config
	backends Backends
	hub      Fetcher
	logger   *zap.Logger

	once   sync.Once
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.RWMutex
	status Status
	model  qna.Model
	closed bool
	subs   map[int]chan Status
	nextID int
}

// New creates an unloaded Loader.
func New(cfg Config, backends Backends, hub Fetcher, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	return &Loader{
		cfg:      cfg,
		backends: backends,
		hub:      hub,
		logger:   logger,
		done:     make(chan struct{}),
		status:   Status{State: StateUnloaded},
		subs:     make(map[int]chan Status),
	}
}

// Start begins the load in the background. Only the first call has effect.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		var runCtx context.Context
		var cancel context.CancelFunc
		if l.cfg.Timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		} else {
			runCtx, cancel = context.WithCancel(ctx)
		}
		l.mu.Lock()
		l.cancel = cancel
		l.mu.Unlock()
		go l.run(runCtx)
	})
}

// Load starts the load if needed and waits for it to finish or for ctx to end.
// It returns the load failure, if any.
func (l *Loader) Load(ctx context.Context) error {
	l.Start(ctx)
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	status := l.Status()
	if status.Err != nil {
		return status.Err
	}
	if !status.Ready() {
		return ErrClosed
	}
	return nil
}

// Done is closed when the load attempt has finished, successfully or not.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// Status returns the current state.
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Subscribe returns a channel that receives the current status immediately and
// every later change. Slow readers see only the latest status. The channel is
// closed by the returned cancel func or by Close.
func (l *Loader) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch, func() {}
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	ch <- l.status

	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
}

// Close detaches the loader from its consumers. An in-flight load is canceled
// and its outcome is discarded: no state change or notification happens after
// Close returns.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
	}
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}

// FindAnswer extracts the best answer to question from passage. It returns
// nil when the question or passage is blank, when the model finds nothing, or
// when the top answer is empty after trimming.
func (l *Loader) FindAnswer(ctx context.Context, question, passage string) (*types.AnswerResult, error) {
	l.mu.RLock()
	model := l.model
	l.mu.RUnlock()

	if model == nil {
		return nil, ErrModelNotLoaded
	}
	if strings.TrimSpace(question) == "" || strings.TrimSpace(passage) == "" {
		return nil, nil
	}

	answers, err := infer(ctx, model, question, passage)
	if err != nil {
		return nil, &InferenceError{Cause: err}
	}
	if len(answers) == 0 {
		return nil, nil
	}

	top := answers[0]
	if strings.TrimSpace(top.Text) == "" || top.Score < l.cfg.MinScore {
		return nil, nil
	}
	return &top, nil
}

func infer(ctx context.Context, model qna.Model, question, passage string) (answers []types.AnswerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return model.FindAnswers(ctx, question, passage)
}

func (l *Loader) run(ctx context.Context) {
	defer close(l.done)
	defer l.releaseContext()

	started := time.Now()
	l.apply(func(s *Status) {
		*s = Status{State: StateLoading, StartedAt: started}
	}, nil)

	model, backend, err := l.acquire(ctx)
	finished := time.Now()

	if l.cfg.Observer != nil {
		l.cfg.Observer.ObserveLoad(backend, finished.Sub(started), err)
	}

	if err != nil {
		l.logger.Error("model load failed", zap.Error(err), zap.Duration("took", finished.Sub(started)))
		l.apply(func(s *Status) {
			*s = Status{State: StateFailed, Backend: backend, Error: err.Error(), Err: err, StartedAt: started, FinishedAt: finished}
		}, nil)
		return
	}

	l.logger.Info("model ready", zap.String("backend", backend), zap.Duration("took", finished.Sub(started)))
	l.apply(func(s *Status) {
		*s = Status{State: StateReady, Backend: backend, StartedAt: started, FinishedAt: finished}
	}, model)
}

// apply mutates status and publishes it, unless the loader was closed.
func (l *Loader) apply(mutate func(*Status), model qna.Model) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.logger.Debug("loader closed, dropping state update")
		return
	}
	mutate(&l.status)
	if model != nil {
		l.model = model
	}
	for _, ch := range l.subs {
		publish(ch, l.status)
	}
}

// publish delivers s, replacing an unread older status.
func publish(ch chan Status, s Status) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func (l *Loader) releaseContext() {
	l.mu.RLock()
	cancel := l.cancel
	l.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// acquire runs backend setup, artifact download and instantiation, with the
// asset reroute active only for its duration.
func (l *Loader) acquire(ctx context.Context) (model qna.Model, backend string, err error) {
	stage := StageIntercept
	defer func() {
		if r := recover(); r != nil {
			err = &LoadError{Stage: stage, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	load := func(ctx context.Context, client *http.Client) error {
		stage = StageBackend
		b, err := l.backends.Ready(ctx)
		if err != nil {
			return &LoadError{Stage: StageBackend, Cause: err}
		}
		backend = b.Name()

		stage = StageFetch
		artifacts, err := l.hub.Fetch(ctx, client, l.cfg.ModelURL)
		if err != nil {
			return &LoadError{Stage: StageFetch, Cause: err}
		}

		stage = StageInstantiate
		m, err := b.Instantiate(ctx, artifacts)
		if err != nil {
			return &LoadError{Stage: StageInstantiate, Cause: err}
		}
		model = m
		return nil
	}

	if l.cfg.GatewayBase == "" {
		err = load(ctx, &http.Client{Transport: l.cfg.Transport})
	} else {
		err = interceptor.Scope(ctx, l.cfg.GatewayBase, l.cfg.ProviderHosts, l.cfg.Transport, load)
	}
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			err = &LoadError{Stage: stage, Cause: err}
		}
		return nil, backend, err
	}
	return model, backend, nil
}
