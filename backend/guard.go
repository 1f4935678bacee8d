package backend

import "sync"

// Ticket identifies one outstanding call within its slot. A ticket goes
// stale the moment a newer call is issued for the same slot.
type Ticket struct {
	Slot string
	Seq  uint64
}

// SlotGuard enforces last-writer-wins by issue order for concurrent calls
// sharing a logical slot (same operation and parameters). Issuing a new
// ticket implicitly marks every earlier outstanding ticket for that slot
// as discardable; there is no explicit cancel-all.
type SlotGuard struct {
	mu  sync.Mutex
	seq map[string]uint64
}

func NewSlotGuard() *SlotGuard {
	return &SlotGuard{seq: make(map[string]uint64)}
}

// Issue registers a new call for the slot and returns its ticket. The
// sequence is monotonically increasing per slot.
func (g *SlotGuard) Issue(slot string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq[slot]++
	return Ticket{Slot: slot, Seq: g.seq[slot]}
}

// Current reports whether the ticket still represents the most recently
// issued call for its slot. Callers must check this before applying a
// settled call's result to any shared state.
func (g *SlotGuard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq[t.Slot] == t.Seq
}
