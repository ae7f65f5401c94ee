package entity

import "battlecore/internal/arena"

// NotFound is returned by lookups that reference a dead or never-existing
// entity. Callers are expected to treat it as "entity gone, skip" per §4.3.
type NotFound struct {
	ID ID
}

func (e NotFound) Error() string {
	return "entity: not found"
}

// Store is the archetypal-ish entity component store (§4.3). Entities live
// in a generational arena; components are held in parallel maps keyed by
// the same ID so queries can intersect component sets without touching
// unrelated data.
type Store struct {
	entities *arena.Arena[Entity]
	living   map[ID]*Living
}

// NewStore creates an empty store with capacityHint preallocated entity
// slots.
func NewStore(capacityHint int) *Store {
	return &Store{
		entities: arena.New[Entity](capacityHint),
		living:   make(map[ID]*Living, capacityHint),
	}
}

// Spawn inserts a new entity and returns its ID.
func (s *Store) Spawn(e Entity) ID {
	id := s.entities.Insert(e)
	if ent := s.entities.GetMut(id); ent != nil {
		ent.ID = id
	}
	return id
}

// Despawn removes an entity and any components attached to it.
func (s *Store) Despawn(id ID) bool {
	delete(s.living, id)
	return s.entities.Remove(id)
}

// Get returns the entity at id.
func (s *Store) Get(id ID) (*Entity, error) {
	e := s.entities.GetMut(id)
	if e == nil {
		return nil, NotFound{ID: id}
	}
	return e, nil
}

// Exists reports whether id currently resolves to a live entity.
func (s *Store) Exists(id ID) bool {
	return s.entities.Contains(id)
}

// AttachLiving adds or replaces the Living component on id.
func (s *Store) AttachLiving(id ID, l *Living) {
	s.living[id] = l
}

// Living returns the Living component for id, or nil if the entity has
// none.
func (s *Store) Living(id ID) *Living {
	return s.living[id]
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return s.entities.Len()
}

// QueryAll calls fn for every live entity.
func (s *Store) QueryAll(fn func(*Entity)) {
	s.entities.Iter(func(_ arena.Index, e *Entity) bool {
		fn(e)
		return true
	})
}

// QueryLiving calls fn for every live entity that also has a Living
// component (§4.3 query<T>()).
func (s *Store) QueryLiving(fn func(*Entity, *Living)) {
	s.entities.Iter(func(id arena.Index, e *Entity) bool {
		if l, ok := s.living[id]; ok {
			fn(e, l)
		}
		return true
	})
}

// QueryWithoutLiving calls fn for every live entity that has no Living
// component (§4.3 query_without<T, Excluded>()).
func (s *Store) QueryWithoutLiving(fn func(*Entity)) {
	s.entities.Iter(func(id arena.Index, e *Entity) bool {
		if _, ok := s.living[id]; !ok {
			fn(e)
		}
		return true
	})
}

// QueryOneMut returns the entity and its Living component (if any) for a
// single id, or NotFound (§4.3 query_one_mut(id)).
func (s *Store) QueryOneMut(id ID) (*Entity, *Living, error) {
	e, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return e, s.living[id], nil
}

// Clone returns an independent copy of the store: every entity and every
// Living component is deep-copied, so mutating the clone never affects the
// original (internal/netplay rollback snapshots depend on this).
func (s *Store) Clone() *Store {
	out := &Store{
		entities: s.entities.Clone(func(e Entity) Entity { return e.clone() }),
		living:   make(map[ID]*Living, len(s.living)),
	}
	for id, l := range s.living {
		out.living[id] = l.clone()
	}
	return out
}

// OnTile calls fn for every live, on-field entity currently standing at pos.
func (s *Store) OnTile(pos Position, fn func(*Entity)) {
	s.entities.Iter(func(_ arena.Index, e *Entity) bool {
		if e.OnField && !e.Deleted && e.Position == pos {
			fn(e)
		}
		return true
	})
}
