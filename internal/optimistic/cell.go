package optimistic

import (
	"sync"

	"github.com/google/uuid"
)

// Cell is a single optimistic value, for state that is read and replaced
// as a whole such as a balance paired with an inventory.
type Cell[T any] struct {
	mu        sync.RWMutex
	clone     func(T) T
	value     T
	confirmed T
	loaded    bool
	seq       uint64
	latest    uint64
}

// NewCell returns an unloaded cell. clone may be nil for plain values.
func NewCell[T any](clone func(T) T) *Cell[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Cell[T]{clone: clone}
}

// Get returns the visible value and whether it was ever loaded.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.value), c.loaded
}

// Confirmed returns the last value the server vouched for, ignoring
// optimistic changes still in flight.
func (c *Cell[T]) Confirmed() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.confirmed), c.loaded
}

// Set installs an authoritative value. In-flight mutations become stale.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = c.clone(v)
	c.confirmed = c.clone(v)
	c.loaded = true
	c.latest = 0
}

// Reset forgets the value, as on logout.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.confirmed = zero
	c.loaded = false
	c.latest = 0
}

// Begin makes apply(value) visible and returns the pending mutation.
func (c *Cell[T]) Begin(apply func(T) T) *CellMutation[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.clone(c.value)
	c.value = apply(c.clone(c.value))
	c.seq++
	c.latest = c.seq
	return &CellMutation[T]{id: uuid.New(), c: c, seq: c.seq, before: before, state: Applied}
}

// BeginIdle is Begin when no mutation is unresolved. It reports false and
// changes nothing otherwise.
func (c *Cell[T]) BeginIdle(apply func(T) T) (*CellMutation[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest != 0 {
		return nil, false
	}
	before := c.clone(c.value)
	c.value = apply(c.clone(c.value))
	c.seq++
	c.latest = c.seq
	return &CellMutation[T]{id: uuid.New(), c: c, seq: c.seq, before: before, state: Applied}, true
}

// Amend applies a change the server already accepted to both the visible
// and the confirmed value. It refuses while a mutation is unresolved, since
// that mutation's snapshot would not carry the change.
func (c *Cell[T]) Amend(apply func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || c.latest != 0 {
		return false
	}
	c.value = apply(c.clone(c.value))
	c.confirmed = c.clone(c.value)
	return true
}

// Pending reports whether a mutation is unresolved.
func (c *Cell[T]) Pending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest != 0
}

// CellMutation is one optimistic change to a Cell.
type CellMutation[T any] struct {
	id     uuid.UUID
	c      *Cell[T]
	seq    uint64
	before T
	state  State
}

// ID identifies the mutation in logs and request headers.
func (m *CellMutation[T]) ID() uuid.UUID { return m.id }

// Before returns the value captured by Begin.
func (m *CellMutation[T]) Before() T { return m.c.clone(m.before) }

// State returns the mutation's current state.
func (m *CellMutation[T]) State() State {
	m.c.mu.RLock()
	defer m.c.mu.RUnlock()
	return m.state
}

// Confirm keeps the optimistic value, which becomes the confirmed one.
func (m *CellMutation[T]) Confirm() State {
	return m.resolve(func() State {
		m.c.confirmed = m.c.clone(m.c.value)
		return Confirmed
	})
}

// ConfirmWith replaces the optimistic value with the server's.
func (m *CellMutation[T]) ConfirmWith(v T) State {
	return m.resolve(func() State {
		m.c.value = m.c.clone(v)
		m.c.confirmed = m.c.clone(v)
		return Confirmed
	})
}

// Rollback restores the value captured by Begin.
func (m *CellMutation[T]) Rollback() State {
	return m.resolve(func() State {
		m.c.value = m.c.clone(m.before)
		return RolledBack
	})
}

// Resolve confirms on a nil error and rolls back otherwise.
func (m *CellMutation[T]) Resolve(err error) State {
	if err != nil {
		return m.Rollback()
	}
	return m.Confirm()
}

func (m *CellMutation[T]) resolve(apply func() State) State {
	c := m.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.state != Applied {
		return m.state
	}
	if c.latest != m.seq {
		m.state = Discarded
		return m.state
	}
	c.latest = 0
	m.state = apply()
	return m.state
}
