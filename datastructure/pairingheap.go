// Package datastructure provides the container types that the event queue is
// built on.
package datastructure

import (
	"errors"
)

// ErrEmptyHeap is returned when popping from a heap without elements.
var ErrEmptyHeap = errors.New("datastructure: heap is empty")

const nilIndex = -1

// A Handle refers to an element stored in a PairingHeap. Handles stay valid
// until the element is popped or removed. The zero Handle is never valid.
type Handle struct {
	index int
	gen   uint32
}

type heapNode[T any] struct {
	value T
	gen   uint32
	used  bool

	parent, child, prev, next int
}

// PairingHeap is a min-heap ordered by a caller-supplied less function.
//
// Nodes live in an index arena and are recycled through a free list, so
// handles never hold pointers into the heap. Push and Peek are O(1).
// Pop, Update and Remove are amortized O(log n).
type PairingHeap[T any] struct {
	less  func(a, b T) bool
	nodes []heapNode[T]
	free  []int
	root  int
	size  int

	scratch []int
}

// NewPairingHeap creates an empty heap. The less function must define a
// strict weak ordering.
func NewPairingHeap[T any](less func(a, b T) bool) *PairingHeap[T] {
	if less == nil {
		panic("datastructure: less function must not be nil")
	}

	return &PairingHeap[T]{
		less: less,
		root: nilIndex,
	}
}

// Len returns the number of elements in the heap.
func (h *PairingHeap[T]) Len() int {
	return h.size
}

// Push adds an element and returns a handle to it.
func (h *PairingHeap[T]) Push(v T) Handle {
	i := h.alloc(v)
	h.root = h.link(h.root, i)
	h.size++

	return Handle{index: i, gen: h.nodes[i].gen}
}

// Peek returns the minimum element without removing it.
func (h *PairingHeap[T]) Peek() (T, bool) {
	if h.root == nilIndex {
		var zero T
		return zero, false
	}

	return h.nodes[h.root].value, true
}

// PeekHandle returns the handle of the minimum element.
func (h *PairingHeap[T]) PeekHandle() (Handle, bool) {
	if h.root == nilIndex {
		return Handle{}, false
	}

	return Handle{index: h.root, gen: h.nodes[h.root].gen}, true
}

// Pop removes and returns the minimum element.
func (h *PairingHeap[T]) Pop() (T, error) {
	if h.root == nilIndex {
		var zero T
		return zero, ErrEmptyHeap
	}

	r := h.root
	v := h.nodes[r].value
	h.root = h.mergeChildren(r)
	h.release(r)
	h.size--

	return v, nil
}

// Valid reports whether the handle still refers to an element in the heap.
func (h *PairingHeap[T]) Valid(handle Handle) bool {
	if handle.index < 0 || handle.index >= len(h.nodes) {
		return false
	}

	n := &h.nodes[handle.index]

	return n.used && n.gen == handle.gen
}

// Get returns the element a handle refers to.
func (h *PairingHeap[T]) Get(handle Handle) (T, bool) {
	if !h.Valid(handle) {
		var zero T
		return zero, false
	}

	return h.nodes[handle.index].value, true
}

// Set replaces the element a handle refers to and restores the heap order.
func (h *PairingHeap[T]) Set(handle Handle, v T) {
	h.mustBeValid(handle)
	h.nodes[handle.index].value = v
	h.Update(handle)
}

// Update restores the heap order after the key of the element changed. Both
// increased and decreased keys are supported.
func (h *PairingHeap[T]) Update(handle Handle) {
	h.mustBeValid(handle)

	i := handle.index
	if i == h.root {
		h.root = h.mergeChildren(i)
	} else {
		h.cut(i)
		sub := h.mergeChildren(i)
		h.root = h.link(h.root, sub)
	}

	h.root = h.link(h.root, i)
}

// Remove deletes the element a handle refers to. It returns false if the
// handle is no longer valid, so removing twice is harmless.
func (h *PairingHeap[T]) Remove(handle Handle) bool {
	if !h.Valid(handle) {
		return false
	}

	i := handle.index
	if i == h.root {
		h.root = h.mergeChildren(i)
	} else {
		h.cut(i)
		sub := h.mergeChildren(i)
		h.root = h.link(h.root, sub)
	}

	h.release(i)
	h.size--

	return true
}

// Clear removes all elements. Outstanding handles become invalid.
func (h *PairingHeap[T]) Clear() {
	for i := range h.nodes {
		if h.nodes[i].used {
			h.release(i)
		}
	}

	h.root = nilIndex
	h.size = 0
}

// Each visits all elements in arena order, which is unrelated to the heap
// order. Returning false from fn stops the walk. The heap must not be
// modified during the walk.
func (h *PairingHeap[T]) Each(fn func(handle Handle, v T) bool) {
	for i := range h.nodes {
		n := &h.nodes[i]
		if !n.used {
			continue
		}

		if !fn(Handle{index: i, gen: n.gen}, n.value) {
			return
		}
	}
}

func (h *PairingHeap[T]) mustBeValid(handle Handle) {
	if !h.Valid(handle) {
		panic("datastructure: invalid heap handle")
	}
}

func (h *PairingHeap[T]) alloc(v T) int {
	var i int
	if len(h.free) > 0 {
		i = h.free[len(h.free)-1]
		h.free = h.free[:len(h.free)-1]
	} else {
		h.nodes = append(h.nodes, heapNode[T]{})
		i = len(h.nodes) - 1
	}

	n := &h.nodes[i]
	n.value = v
	n.gen++
	n.used = true
	n.parent, n.child, n.prev, n.next = nilIndex, nilIndex, nilIndex, nilIndex

	return i
}

func (h *PairingHeap[T]) release(i int) {
	n := &h.nodes[i]

	var zero T
	n.value = zero
	n.used = false
	n.parent, n.child, n.prev, n.next = nilIndex, nilIndex, nilIndex, nilIndex

	h.free = append(h.free, i)
}

// link merges two detached trees and returns the new root.
func (h *PairingHeap[T]) link(a, b int) int {
	if a == nilIndex {
		return b
	}

	if b == nilIndex {
		return a
	}

	if h.less(h.nodes[b].value, h.nodes[a].value) {
		a, b = b, a
	}

	parent := &h.nodes[a]
	child := &h.nodes[b]

	child.parent = a
	child.prev = nilIndex
	child.next = parent.child

	if parent.child != nilIndex {
		h.nodes[parent.child].prev = b
	}

	parent.child = b
	parent.prev, parent.next, parent.parent = nilIndex, nilIndex, nilIndex

	return a
}

// cut detaches the subtree rooted at i from its parent and siblings.
func (h *PairingHeap[T]) cut(i int) {
	n := &h.nodes[i]

	if n.parent != nilIndex && h.nodes[n.parent].child == i {
		h.nodes[n.parent].child = n.next
	}

	if n.prev != nilIndex {
		h.nodes[n.prev].next = n.next
	}

	if n.next != nilIndex {
		h.nodes[n.next].prev = n.prev
	}

	n.parent, n.prev, n.next = nilIndex, nilIndex, nilIndex
}

// mergeChildren detaches all children of i and combines them with the
// two-pass pairing strategy. It returns the root of the merged tree.
func (h *PairingHeap[T]) mergeChildren(i int) int {
	h.scratch = h.scratch[:0]

	for c := h.nodes[i].child; c != nilIndex; {
		next := h.nodes[c].next

		n := &h.nodes[c]
		n.parent, n.prev, n.next = nilIndex, nilIndex, nilIndex

		h.scratch = append(h.scratch, c)
		c = next
	}

	h.nodes[i].child = nilIndex

	if len(h.scratch) == 0 {
		return nilIndex
	}

	pairs := 0
	for j := 0; j < len(h.scratch); j += 2 {
		merged := h.scratch[j]
		if j+1 < len(h.scratch) {
			merged = h.link(merged, h.scratch[j+1])
		}

		h.scratch[pairs] = merged
		pairs++
	}

	root := h.scratch[pairs-1]
	for j := pairs - 2; j >= 0; j-- {
		root = h.link(h.scratch[j], root)
	}

	return root
}
