// Package arena provides generational-index containers used throughout the
// battle simulation for entities, actions, animators, and sprite nodes.
//
// All indices are value types (slot + generation), never pointers, so that
// the simulation state containing them can be copied into a snapshot and
// restored later (see internal/netplay) without any pointer-fixup pass.
package arena

// Index identifies a slot in an Arena at a specific point in its lifetime.
// Accessing a slot with a stale generation fails cleanly instead of
// silently returning a recycled value.
type Index struct {
	Slot       uint32
	Generation uint32
}

// Nil is the zero Index. No Insert ever returns Nil, so it is safe to use
// as a "no value" sentinel for optional index fields.
var Nil = Index{}

// IsNil reports whether idx is the zero value.
func (idx Index) IsNil() bool {
	return idx == Nil
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Arena is a generational-index container with O(1) insert, get, and
// remove. It never shrinks its backing storage, trading memory for the
// cache-friendly, allocation-free iteration the per-frame hot loops need.
type Arena[T any] struct {
	slots     []slot[T]
	freeList  []uint32
	liveCount int
}

// New creates an empty arena. capacityHint preallocates backing storage to
// avoid reallocation during the first battle's worth of inserts.
func New[T any](capacityHint int) *Arena[T] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Arena[T]{
		slots:    make([]slot[T], 0, capacityHint),
		freeList: make([]uint32, 0, capacityHint/4+1),
	}
}

// Insert stores value and returns an Index that can later retrieve it.
func (a *Arena[T]) Insert(value T) Index {
	a.liveCount++
	if n := len(a.freeList); n > 0 {
		i := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.slots[i].value = value
		a.slots[i].occupied = true
		return Index{Slot: i, Generation: a.slots[i].generation}
	}

	a.slots = append(a.slots, slot[T]{value: value, generation: 1, occupied: true})
	return Index{Slot: uint32(len(a.slots) - 1), Generation: 1}
}

// Get returns the value at idx and true, or the zero value and false if the
// slot is empty or idx's generation is stale.
func (a *Arena[T]) Get(idx Index) (T, bool) {
	var zero T
	if int(idx.Slot) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[idx.Slot]
	if !s.occupied || s.generation != idx.Generation {
		return zero, false
	}
	return s.value, true
}

// GetMut returns a pointer to the value at idx, or nil if idx is stale or
// unoccupied. The pointer is invalidated by any later Remove of the same
// slot (the slot's generation is bumped and its memory reused).
func (a *Arena[T]) GetMut(idx Index) *T {
	if int(idx.Slot) >= len(a.slots) {
		return nil
	}
	s := &a.slots[idx.Slot]
	if !s.occupied || s.generation != idx.Generation {
		return nil
	}
	return &s.value
}

// Contains reports whether idx currently resolves to a live value.
func (a *Arena[T]) Contains(idx Index) bool {
	if int(idx.Slot) >= len(a.slots) {
		return false
	}
	s := &a.slots[idx.Slot]
	return s.occupied && s.generation == idx.Generation
}

// Remove deletes the value at idx, bumping the slot's generation so any
// previously-issued Index referencing it becomes stale. Returns false if
// idx was already stale or empty.
func (a *Arena[T]) Remove(idx Index) bool {
	if int(idx.Slot) >= len(a.slots) {
		return false
	}
	s := &a.slots[idx.Slot]
	if !s.occupied || s.generation != idx.Generation {
		return false
	}
	var zero T
	s.value = zero
	s.occupied = false
	s.generation++
	a.freeList = append(a.freeList, idx.Slot)
	a.liveCount--
	return true
}

// Len returns the number of live entries.
func (a *Arena[T]) Len() int {
	return a.liveCount
}

// Iter calls fn for every live entry in slot order (stable, not insertion
// order once removals have occurred). Returning false from fn stops
// iteration early.
func (a *Arena[T]) Iter(fn func(Index, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		idx := Index{Slot: uint32(i), Generation: s.generation}
		if !fn(idx, &s.value) {
			return
		}
	}
}

// Clone returns an independent copy of the arena, applying cloneValue to
// every live entry so callers can deep-copy whatever T itself references
// (pointers, slices, maps). Free slots are copied as-is; their generation
// counters carry over so indices issued before the clone remain equally
// stale or live in both arenas (needed for internal/netplay snapshots,
// which must restore to a byte-for-byte independent simulation state).
func (a *Arena[T]) Clone(cloneValue func(T) T) *Arena[T] {
	out := &Arena[T]{
		slots:     make([]slot[T], len(a.slots)),
		freeList:  append([]uint32(nil), a.freeList...),
		liveCount: a.liveCount,
	}
	for i, s := range a.slots {
		out.slots[i] = slot[T]{generation: s.generation, occupied: s.occupied}
		if s.occupied {
			out.slots[i].value = cloneValue(s.value)
		}
	}
	return out
}

// Clear empties the arena without releasing backing storage, matching the
// teacher's preference for reusable buffers over per-tick reallocation.
func (a *Arena[T]) Clear() {
	for i := range a.slots {
		if a.slots[i].occupied {
			var zero T
			a.slots[i].value = zero
			a.slots[i].occupied = false
			a.slots[i].generation++
			a.freeList = append(a.freeList, uint32(i))
		}
	}
	a.liveCount = 0
}
