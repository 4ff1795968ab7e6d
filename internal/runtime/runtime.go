// Package runtime negotiates the execution backend a QnA model runs on.
// Backends are tried in order (the preferred one first, then by descending
// priority) and the first that sets up successfully is kept for the process.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
)

// PreferAuto lets the runtime pick the highest-priority working backend.
const PreferAuto = "auto"

// ErrUnavailable is returned by Setup when a backend lacks what it needs.
var ErrUnavailable = errors.New("backend unavailable")

// Backend executes models of one kind.
type Backend interface {
	Name() string
	// Priority orders backends under PreferAuto; higher runs first.
	Priority() int
	// Setup checks the backend can run in this process.
	Setup(ctx context.Context) error
	// Instantiate builds a model from downloaded artifacts.
	Instantiate(ctx context.Context, artifacts *qna.Artifacts) (qna.Model, error)
}

// SetupError reports every backend that failed to initialize.
type SetupError struct {
	Attempts map[string]error
}

func (e *SetupError) Error() string {
	if len(e.Attempts) == 0 {
		return "no runtime backends registered"
	}
	names := make([]string, 0, len(e.Attempts))
	for name := range e.Attempts {
		names = append(names, name)
	}
	sort.Strings(names)
	msg := "no runtime backend available:"
	for _, name := range names {
		msg += fmt.Sprintf(" %s: %v;", name, e.Attempts[name])
	}
	return msg[:len(msg)-1]
}

func (e *SetupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		errs = append(errs, err)
	}
	return errs
}

// Runtime selects and caches one Backend.
type Runtime struct {
	backends  []Backend
	preferred string
	logger    *zap.Logger

	mu     sync.Mutex
	active Backend
}

// New creates a Runtime. An empty preferred name means PreferAuto.
func New(logger *zap.Logger, preferred string, backends ...Backend) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	if preferred == "" {
		preferred = PreferAuto
	}
	return &Runtime{backends: backends, preferred: preferred, logger: logger}
}

// Ready returns the selected backend, running setup on the first successful
// call. Failed attempts are not cached so a later call may retry.
func (r *Runtime) Ready(ctx context.Context) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return r.active, nil
	}

	setupErr := &SetupError{Attempts: make(map[string]error)}
	for _, b := range r.order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.Setup(ctx); err != nil {
			r.logger.Warn("runtime backend unavailable", zap.String("backend", b.Name()), zap.Error(err))
			setupErr.Attempts[b.Name()] = err
			continue
		}
		r.active = b
		r.logger.Info("runtime backend ready", zap.String("backend", b.Name()))
		return b, nil
	}
	return nil, setupErr
}

// Active returns the selected backend name, or "" before Ready succeeds.
func (r *Runtime) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return ""
	}
	return r.active.Name()
}

// Names lists registered backends in trial order.
func (r *Runtime) Names() []string {
	ordered := r.order()
	names := make([]string, len(ordered))
	for i, b := range ordered {
		names[i] = b.Name()
	}
	return names
}

func (r *Runtime) order() []Backend {
	ordered := make([]Backend, len(r.backends))
	copy(ordered, r.backends)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Name() == r.preferred, ordered[j].Name() == r.preferred
		if pi != pj {
			return pi
		}
		return ordered[i].Priority() > ordered[j].Priority()
	})
	return ordered
}
