package viewer

import "sync"

// Ticket identifies one render request.
type Ticket struct {
	seq uint64
}

// Guard orders render requests of one session. Only the most recent request
// may commit; older, slower ones are dropped rather than cancelled.
type Guard struct {
	mu       sync.Mutex
	seq      uint64
	latest   uint64
	latestTS int64
}

// Begin registers a request stamped with ts (client time, 0 if unknown) and
// returns its ticket. A request stamped earlier than one already seen is
// stale from the start.
func (g *Guard) Begin(ts int64) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++

	if ts != 0 && ts < g.latestTS {
		return Ticket{}
	}

	if ts != 0 {
		g.latestTS = ts
	}

	g.latest = g.seq

	return Ticket{seq: g.seq}
}

// Current reports whether t is still the latest request.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return t.seq != 0 && t.seq == g.latest
}
