package htm

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Root is a base triangle of a forest with its seeded index.
type Root[V Vertex[V]] struct {
	Index  uint64
	Points Triangle[V]
}

// Seeder provides the base triangles of a forest variant.
type Seeder[V Vertex[V]] interface {
	Roots() []Root[V]
}

// Trixel is a triangle of a forest at a given depth.
type Trixel[V Vertex[V]] struct {
	Index  uint64
	Points Triangle[V]
	Depth  int

	maxDepth int
}

// IsLeaf reports whether the trixel lies at the forest's max depth.
func (t Trixel[V]) IsLeaf() bool {
	return t.Depth >= t.maxDepth
}

// Children returns the 4 children of the trixel in selector order. It returns
// false for leaves.
func (t Trixel[V]) Children() ([4]Trixel[V], bool) {
	var children [4]Trixel[V]
	if t.IsLeaf() {
		return children, false
	}

	for k, points := range Subdivide(t.Points) {
		children[k] = Trixel[V]{
			Index:    Child(t.Index, uint64(k)),
			Points:   points,
			Depth:    t.Depth + 1,
			maxDepth: t.maxDepth,
		}
	}
	return children, true
}

// Forest is a fixed ordered set of root trixels, each the root of a complete
// subtree down to the forest's max depth.
type Forest[V Vertex[V]] struct {
	roots    []Trixel[V]
	maxDepth int
}

// Build creates a forest from the seeder's roots, expanded to maxDepth. Roots
// are at depth 1; a maxDepth of 0 or 1 yields a forest of leaf roots. It
// returns an error when maxDepth is negative or above MaxDepth.
func Build[V Vertex[V]](s Seeder[V], maxDepth int) (*Forest[V], error) {
	if maxDepth < 0 || maxDepth > MaxDepth {
		return nil, errors.New("depth is out of the supported range").
			WithType(ErrTypeInvalidDepth).
			WithTag("depth", maxDepth).
			WithTag("max_depth", MaxDepth)
	}

	depth := effectiveDepth(maxDepth)
	seeds := s.Roots()
	roots := make([]Trixel[V], len(seeds))
	for i, r := range seeds {
		roots[i] = Trixel[V]{
			Index:    r.Index,
			Points:   r.Points,
			Depth:    1,
			maxDepth: depth,
		}
	}

	return &Forest[V]{
		roots:    roots,
		maxDepth: depth,
	}, nil
}

// Roots returns a copy of the forest roots.
func (f *Forest[V]) Roots() []Trixel[V] {
	roots := make([]Trixel[V], len(f.roots))
	copy(roots, f.roots)
	return roots
}

// MaxDepth returns the depth of the forest leaves.
func (f *Forest[V]) MaxDepth() int {
	return f.maxDepth
}

func (f *Forest[V]) LeafCount() uint64 {
	return LeafCount(len(f.roots), f.maxDepth)
}

func (f *Forest[V]) NodeCount() uint64 {
	return NodeCount(len(f.roots), f.maxDepth)
}

// Walk visits the forest depth-first in pre-order, roots and children in
// selector order. Returning false from fn skips the descendants of the
// visited trixel.
func (f *Forest[V]) Walk(fn func(Trixel[V]) bool) {
	for _, r := range f.roots {
		walk(r, fn)
	}
}

func walk[V Vertex[V]](t Trixel[V], fn func(Trixel[V]) bool) {
	if !fn(t) {
		return
	}

	children, ok := t.Children()
	if !ok {
		return
	}
	for _, c := range children {
		walk(c, fn)
	}
}

// Lookup returns the trixel identified by index.
func (f *Forest[V]) Lookup(index uint64) (Trixel[V], error) {
	depth, err := Depth(index)
	if err != nil {
		return Trixel[V]{}, err
	}
	if depth > f.maxDepth {
		return Trixel[V]{}, errors.New("index is deeper than the forest").
			WithType(ErrTypeInvalidIndex).
			WithTag("index", index).
			WithTag("depth", depth).
			WithTag("max_depth", f.maxDepth)
	}

	rootIndex := index >> (selectorBits * (depth - 1))
	for _, t := range f.roots {
		if t.Index != rootIndex {
			continue
		}

		for level := depth - 2; level >= 0; level-- {
			children, _ := t.Children()
			t = children[Selector(index>>(selectorBits*level))]
		}
		return t, nil
	}

	return Trixel[V]{}, errors.New("index has no root in the forest").
		WithType(ErrTypeInvalidIndex).
		WithTag("index", index)
}

// Locate descends from the first root accepted by contains to the deepest
// trixel accepted by contains. When no child of an accepted trixel is
// accepted, which only happens for positions on shared boundaries under
// floating point rounding, the accepted trixel itself is returned. It returns
// false when no root is accepted.
func (f *Forest[V]) Locate(contains func(Triangle[V]) bool) (Trixel[V], bool) {
	for _, r := range f.roots {
		if contains(r.Points) {
			return descend(r, contains), true
		}
	}
	return Trixel[V]{}, false
}

func descend[V Vertex[V]](t Trixel[V], contains func(Triangle[V]) bool) Trixel[V] {
	for {
		children, ok := t.Children()
		if !ok {
			return t
		}

		next := -1
		for k := range children {
			if contains(children[k].Points) {
				next = k
				break
			}
		}
		if next < 0 {
			return t
		}
		t = children[next]
	}
}
