package arena

// node wraps a value with parent/child linkage so a TreeArena can answer
// "walk my subtree" queries without a second data structure. Children are
// stored in insertion order, which the sprite tree and action-attachment
// tree both rely on for stable iteration (§4.1).
type node[T any] struct {
	value    T
	parent   Index
	children []Index
}

// TreeArena is an Arena[T] augmented with parent/child relationships. It is
// used for sprite trees and for the attachment list hanging off an Action.
type TreeArena[T any] struct {
	inner *Arena[node[T]]
}

// NewTree creates an empty tree arena.
func NewTree[T any](capacityHint int) *TreeArena[T] {
	return &TreeArena[T]{inner: New[node[T]](capacityHint)}
}

// InsertRoot inserts a value with no parent.
func (t *TreeArena[T]) InsertRoot(value T) Index {
	return t.inner.Insert(node[T]{value: value, parent: Nil})
}

// InsertChild inserts value as a new child of parent, appended after any
// existing children. Returns Nil if parent does not resolve to a live node.
func (t *TreeArena[T]) InsertChild(parent Index, value T) Index {
	if !t.inner.Contains(parent) {
		return Nil
	}
	idx := t.inner.Insert(node[T]{value: value, parent: parent})
	parentNode := t.inner.GetMut(parent)
	parentNode.children = append(parentNode.children, idx)
	return idx
}

// Get returns the value stored at idx.
func (t *TreeArena[T]) Get(idx Index) (T, bool) {
	n, ok := t.inner.Get(idx)
	return n.value, ok
}

// GetMut returns a mutable pointer to the value stored at idx.
func (t *TreeArena[T]) GetMut(idx Index) *T {
	n := t.inner.GetMut(idx)
	if n == nil {
		return nil
	}
	return &n.value
}

// Parent returns idx's parent, or Nil if idx is a root or stale.
func (t *TreeArena[T]) Parent(idx Index) Index {
	n, ok := t.inner.Get(idx)
	if !ok {
		return Nil
	}
	return n.parent
}

// Children returns idx's children in insertion order. The returned slice
// must not be retained across a Remove call on idx.
func (t *TreeArena[T]) Children(idx Index) []Index {
	n, ok := t.inner.Get(idx)
	if !ok {
		return nil
	}
	return n.children
}

// Remove detaches idx from its parent's child list and removes idx along
// with its entire subtree.
func (t *TreeArena[T]) Remove(idx Index) bool {
	n, ok := t.inner.Get(idx)
	if !ok {
		return false
	}

	if !n.parent.IsNil() {
		if parentNode := t.inner.GetMut(n.parent); parentNode != nil {
			children := parentNode.children
			for i, c := range children {
				if c == idx {
					parentNode.children = append(children[:i], children[i+1:]...)
					break
				}
			}
		}
	}

	// Depth-first removal of the subtree. Copy children first since Remove
	// mutates the parent's slice as it recurses.
	children := append([]Index(nil), n.children...)
	for _, c := range children {
		t.removeSubtree(c)
	}
	return t.inner.Remove(idx)
}

// removeSubtree removes idx and its descendants without touching idx's
// parent's child list (the caller already owns that mutation).
func (t *TreeArena[T]) removeSubtree(idx Index) {
	n, ok := t.inner.Get(idx)
	if !ok {
		return
	}
	for _, c := range n.children {
		t.removeSubtree(c)
	}
	t.inner.Remove(idx)
}

// Len returns the number of live nodes (roots and children combined).
func (t *TreeArena[T]) Len() int {
	return t.inner.Len()
}
