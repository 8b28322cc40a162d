package vm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrDuplicateKey is returned by InsertDescriptor when the shape already
// describes the key. Redefinitions go through reconfiguration instead.
var ErrDuplicateKey = errors.New("shape already describes key")

// indexThreshold is the descriptor count above which a shape carries a key index.
const indexThreshold = 8

// Shape is an immutable object layout. A shape's descriptors are its parent's
// descriptors plus exactly one appended entry; the root has none.
// Only the transition table changes after publication, and only by adding entries.
type Shape struct {
	id     uint64
	tree   *ShapeTree
	parent *Shape
	fields []Descriptor
	index  map[PropertyKey]int // nil for small shapes

	mu          sync.RWMutex
	transitions map[Descriptor]*Shape
}

// ID returns the shape's identifier, unique within its tree.
func (s *Shape) ID() uint64 { return s.id }

// Parent returns the shape this one was derived from, or nil for the root.
func (s *Shape) Parent() *Shape { return s.parent }

// Len returns the number of descriptors (and storage slots) in the layout.
func (s *Shape) Len() int { return len(s.fields) }

// At returns the descriptor stored at slot i.
func (s *Shape) At(i int) Descriptor { return s.fields[i] }

// Descriptors returns a copy of the descriptor sequence in insertion order.
func (s *Shape) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup finds the slot index and descriptor for key.
func (s *Shape) Lookup(key PropertyKey) (int, Descriptor, bool) {
	if s.index != nil {
		if i, ok := s.index[key]; ok {
			return i, s.fields[i], true
		}
		return -1, Descriptor{}, false
	}
	for i := range s.fields {
		if s.fields[i].Key == key {
			return i, s.fields[i], true
		}
	}
	return -1, Descriptor{}, false
}

// TransitionCount returns how many children have been memoized on this shape.
func (s *Shape) TransitionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transitions)
}

func (s *Shape) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("Shape#%d{%s}", s.id, strings.Join(parts, ", "))
}

// InsertDescriptor returns the shape reached from shape by appending d.
// Equal descriptors inserted onto the same shape always yield the same child,
// also when callers race: the first writer publishes, the rest reuse it.
func InsertDescriptor(shape *Shape, d Descriptor) (*Shape, error) {
	if _, _, exists := shape.Lookup(d.Key); exists {
		return nil, fmt.Errorf("insert %s into shape #%d: %w", d.Key, shape.id, ErrDuplicateKey)
	}
	tree := shape.tree

	shape.mu.RLock()
	child, ok := shape.transitions[d]
	shape.mu.RUnlock()
	if ok {
		tree.reused.Add(1)
		return child, nil
	}

	shape.mu.Lock()
	defer shape.mu.Unlock()
	if child, ok := shape.transitions[d]; ok {
		tree.reused.Add(1)
		return child, nil
	}
	child = tree.newShape(shape, d)
	if shape.transitions == nil {
		shape.transitions = make(map[Descriptor]*Shape)
	}
	shape.transitions[d] = child
	return child, nil
}

// ShapeTree owns the root shape and every shape reachable from it.
type ShapeTree struct {
	root     *Shape
	nextID   atomic.Uint64
	created  atomic.Int64
	reused   atomic.Int64
	maxDepth atomic.Int64
	logger   *zap.Logger
}

// NewShapeTree creates a tree holding only the empty root shape.
func NewShapeTree(l *zap.Logger) *ShapeTree {
	if l == nil {
		l = Logger()
	}
	t := &ShapeTree{logger: l}
	t.root = &Shape{id: t.nextID.Add(1) - 1, tree: t}
	return t
}

// Root returns the empty shape every object starts from.
func (t *ShapeTree) Root() *Shape { return t.root }

func (t *ShapeTree) newShape(parent *Shape, d Descriptor) *Shape {
	fields := make([]Descriptor, len(parent.fields)+1)
	copy(fields, parent.fields)
	fields[len(parent.fields)] = d

	s := &Shape{
		id:     t.nextID.Add(1) - 1,
		tree:   t,
		parent: parent,
		fields: fields,
	}
	if len(fields) > indexThreshold {
		s.index = make(map[PropertyKey]int, len(fields))
		for i, f := range fields {
			s.index[f.Key] = i
		}
	}

	t.created.Add(1)
	depth := int64(len(fields))
	for {
		cur := t.maxDepth.Load()
		if depth <= cur || t.maxDepth.CompareAndSwap(cur, depth) {
			break
		}
	}
	t.logger.Debug("shape created",
		zap.Uint64("shape", s.id),
		zap.Uint64("parent", parent.id),
		zap.Stringer("descriptor", d))
	return s
}

// ShapeStats summarizes the growth of a shape tree.
type ShapeStats struct {
	Shapes   int64 // including the root
	Created  int64 // transitions that allocated a new shape
	Reused   int64 // transitions served from a memoized child
	MaxDepth int64 // longest descriptor sequence
}

func (t *ShapeTree) Stats() ShapeStats {
	created := t.created.Load()
	return ShapeStats{
		Shapes:   created + 1,
		Created:  created,
		Reused:   t.reused.Load(),
		MaxDepth: t.maxDepth.Load(),
	}
}
