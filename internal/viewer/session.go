package viewer

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
)

// View is the explicit view state of one dashboard user.
type View struct {
	Experiments []results.Experiment
	Selection   annotation.Selection
	Mode        annotation.EvaluationMode
	Hyperlinks  bool
	ShowContext bool
	Article     int
}

func (v View) clone() View {
	v.Experiments = slices.Clone(v.Experiments)

	return v
}

func experimentKeys(exps []results.Experiment) []string {
	keys := make([]string, 0, len(exps))
	for _, e := range exps {
		keys = append(keys, e.Key())
	}

	return keys
}

// Session holds one user's view state and render guard.
type Session struct {
	ID    string
	Guard Guard

	mu       sync.Mutex
	view     View
	lastSeen time.Time
}

// View returns a copy of the current view state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view.clone()
}

// Update changes the view state. The cache pins follow the selected
// experiments so data about to be rendered is not evicted.
func (s *Session) Update(cache *Cache, fn func(*View)) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := experimentKeys(s.view.Experiments)

	next := s.view.clone()
	fn(&next)
	s.view = next

	if cache != nil {
		cache.Pin(experimentKeys(next.Experiments)...)
		cache.Unpin(prev...)
	}

	return s.view.clone()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// Sessions is the registry of live sessions keyed by id.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	cache    *Cache
	now      func() time.Time
}

// NewSessions creates a registry holding at most maxSessions sessions (0 = unlimited).
// Dropped sessions release their cache pins.
func NewSessions(maxSessions int, cache *Cache) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		max:      maxSessions,
		cache:    cache,
		now:      time.Now,
	}
}

// Get returns the session for id or a new one. The second value reports
// whether the session was created.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if s, ok := r.sessions[id]; ok {
		s.touch(now)

		return s, false
	}

	if r.max > 0 && len(r.sessions) >= r.max {
		r.dropOldest()
	}

	s := &Session{ID: uuid.NewString(), lastSeen: now}
	r.sessions[s.ID] = s

	return s, true
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

func (r *Sessions) dropOldest() {
	var (
		oldest *Session
		when   time.Time
	)

	for _, s := range r.sessions {
		if seen := s.seen(); oldest == nil || seen.Before(when) {
			oldest, when = s, seen
		}
	}

	if oldest == nil {
		return
	}

	delete(r.sessions, oldest.ID)

	if r.cache != nil {
		r.cache.Unpin(experimentKeys(oldest.View().Experiments)...)
	}
}
