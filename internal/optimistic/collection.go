package optimistic

import (
	"sync"

	"github.com/google/uuid"
)

// Collection is an ordered list of entities keyed by K.
type Collection[K comparable, V any] struct {
	mu     sync.RWMutex
	keyOf  func(V) K
	clone  func(V) V
	items  []V
	latest map[K]uint64
	seq    uint64
}

// Option configures a Collection.
type Option[K comparable, V any] func(*Collection[K, V])

// WithClone sets the deep-copy function used for snapshots. Without it
// values are copied by assignment.
func WithClone[K comparable, V any](clone func(V) V) Option[K, V] {
	return func(c *Collection[K, V]) { c.clone = clone }
}

// NewCollection returns an empty collection keyed by keyOf.
func NewCollection[K comparable, V any](keyOf func(V) K, opts ...Option[K, V]) *Collection[K, V] {
	c := &Collection[K, V]{
		keyOf:  keyOf,
		clone:  func(v V) V { return v },
		latest: make(map[K]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the visible items.
func (c *Collection[K, V]) Snapshot() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyItems()
}

// Len is the number of visible items.
func (c *Collection[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns a copy of the item with key k.
func (c *Collection[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(k); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero V
	return zero, false
}

// Pending reports whether a mutation on k is still unresolved.
func (c *Collection[K, V]) Pending(k K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.latest[k]
	return ok
}

// Replace installs an authoritative list from the server. In-flight
// mutations become stale and will resolve as Discarded.
func (c *Collection[K, V]) Replace(items []V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]V, len(items))
	for i, v := range items {
		c.items[i] = c.clone(v)
	}
	c.latest = make(map[K]uint64)
}

// Reset empties the collection.
func (c *Collection[K, V]) Reset() { c.Replace(nil) }

// Begin applies transform to the visible items as the optimistic change for
// entity key. transform receives a private copy and must only change the
// entity identified by key: rollback restores that entity alone.
func (c *Collection[K, V]) Begin(key K, transform func([]V) []V) *Mutation[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := entity[V]{index: c.indexOf(key)}
	if before.index >= 0 {
		before.value = c.clone(c.items[before.index])
		before.present = true
	}
	c.items = transform(c.copyItems())
	c.seq++
	c.latest[key] = c.seq

	return &Mutation[K, V]{
		id:     uuid.New(),
		c:      c,
		key:    key,
		seq:    c.seq,
		before: before,
		state:  Applied,
	}
}

// BeginUpdate optimistically rewrites the entity with key. ok is false when
// no such entity is visible; nothing is applied in that case.
func (c *Collection[K, V]) BeginUpdate(key K, update func(V) V) (m *Mutation[K, V], ok bool) {
	if _, found := c.Get(key); !found {
		return nil, false
	}
	return c.Begin(key, func(items []V) []V {
		for i := range items {
			if c.keyOf(items[i]) == key {
				items[i] = update(items[i])
			}
		}
		return items
	}), true
}

// BeginInsert optimistically appends v.
func (c *Collection[K, V]) BeginInsert(v V) *Mutation[K, V] {
	return c.Begin(c.keyOf(v), func(items []V) []V {
		return append(items, c.clone(v))
	})
}

// BeginRemove optimistically drops the entity with key.
func (c *Collection[K, V]) BeginRemove(key K) *Mutation[K, V] {
	return c.Begin(key, func(items []V) []V {
		out := items[:0]
		for _, v := range items {
			if c.keyOf(v) != key {
				out = append(out, v)
			}
		}
		return out
	})
}

func (c *Collection[K, V]) copyItems() []V {
	out := make([]V, len(c.items))
	for i, v := range c.items {
		out[i] = c.clone(v)
	}
	return out
}

func (c *Collection[K, V]) indexOf(k K) int {
	for i, v := range c.items {
		if c.keyOf(v) == k {
			return i
		}
	}
	return -1
}

// current reports whether seq is still the newest mutation for key.
// Caller holds mu.
func (c *Collection[K, V]) current(key K, seq uint64) bool {
	latest, ok := c.latest[key]
	return ok && latest == seq
}

type entity[V any] struct {
	value   V
	present bool
	index   int
}

// Mutation is one optimistic change awaiting the server.
type Mutation[K comparable, V any] struct {
	id     uuid.UUID
	c      *Collection[K, V]
	key    K
	seq    uint64
	before entity[V]
	state  State
}

// ID identifies the mutation in logs and request headers.
func (m *Mutation[K, V]) ID() uuid.UUID { return m.id }

// Key is the entity the mutation targets.
func (m *Mutation[K, V]) Key() K { return m.key }

// Seq is the mutation's sequence number.
func (m *Mutation[K, V]) Seq() uint64 { return m.seq }

// Before returns the entity as it was before the optimistic change.
func (m *Mutation[K, V]) Before() (V, bool) {
	return m.c.clone(m.before.value), m.before.present
}

// State returns the mutation's current state.
func (m *Mutation[K, V]) State() State {
	m.c.mu.RLock()
	defer m.c.mu.RUnlock()
	return m.state
}

// Confirm keeps the optimistic value.
func (m *Mutation[K, V]) Confirm() State {
	return m.resolve(func() State { return Confirmed })
}

// ConfirmWith replaces the optimistic entity with the server's version,
// which may carry a different key (a server-assigned id). If the entity
// has left the collection meanwhile the value is dropped and the mutation
// resolves as Discarded.
func (m *Mutation[K, V]) ConfirmWith(v V) State {
	return m.resolve(func() State {
		i := m.c.indexOf(m.key)
		if i < 0 {
			return Discarded
		}
		m.c.items[i] = m.c.clone(v)
		return Confirmed
	})
}

// Rollback restores the snapshot taken by Begin.
func (m *Mutation[K, V]) Rollback() State {
	return m.resolve(func() State {
		c := m.c
		i := c.indexOf(m.key)
		switch {
		case !m.before.present && i >= 0:
			c.items = append(c.items[:i], c.items[i+1:]...)
		case m.before.present && i >= 0:
			c.items[i] = c.clone(m.before.value)
		case m.before.present:
			at := m.before.index
			if at > len(c.items) {
				at = len(c.items)
			}
			c.items = append(c.items, m.before.value)
			copy(c.items[at+1:], c.items[at:])
			c.items[at] = c.clone(m.before.value)
		}
		return RolledBack
	})
}

// Resolve confirms on a nil error and rolls back otherwise.
func (m *Mutation[K, V]) Resolve(err error) State {
	if err != nil {
		return m.Rollback()
	}
	return m.Confirm()
}

func (m *Mutation[K, V]) resolve(apply func() State) State {
	c := m.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.state != Applied {
		return m.state
	}
	if !c.current(m.key, m.seq) {
		m.state = Discarded
		return m.state
	}
	delete(c.latest, m.key)
	m.state = apply()
	return m.state
}
