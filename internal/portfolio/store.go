package portfolio

import (
	"sync/atomic"
	"time"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/knowledge"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Snapshot is an immutable view of one Fact Set and its lazily compiled passage.
type Snapshot struct {
	Facts     *types.Portfolio
	Knowledge *knowledge.Cache
	Version   int64
	LoadedAt  time.Time
}

// Store holds the current Snapshot. Readers keep the snapshot they obtained, so
// a reload never changes the passage under an existing chat session.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// NewStore creates a store seeded with the given Fact Set.
func NewStore(facts *types.Portfolio) *Store {
	s := &Store{}
	s.Replace(facts)
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace publishes a new Fact Set and returns its snapshot.
func (s *Store) Replace(facts *types.Portfolio) *Snapshot {
	snap := &Snapshot{
		Facts:     facts,
		Knowledge: knowledge.NewCache(facts),
		Version:   s.version.Add(1),
		LoadedAt:  time.Now(),
	}
	s.current.Store(snap)
	return snap
}
