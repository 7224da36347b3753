package htm

import (
	"math/bits"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// MaxDepth is the deepest supported subdivision level. A depth-25 index
	// uses 2 + 2*25 = 52 bits.
	MaxDepth = 25

	// Leading markers of root indices.
	MarkerSouth uint64 = 0b10
	MarkerNorth uint64 = 0b11

	// Quadrant selectors, in Subdivide order.
	Corner0 uint64 = 0
	Corner1 uint64 = 1
	Corner2 uint64 = 2
	Center  uint64 = 3

	selectorBits = 2
	selectorMask = 0b11
)

// Child returns the index of the child reached from index through selector.
func Child(index, selector uint64) uint64 {
	return index<<selectorBits | selector&selectorMask
}

// Parent returns the index of the trixel that index was subdivided from. The
// parent of a root is its bare marker.
func Parent(index uint64) uint64 {
	return index >> selectorBits
}

// Selector returns the last quadrant selector of index.
func Selector(index uint64) uint64 {
	return index & selectorMask
}

// Depth returns the subdivision depth encoded in index, floor(log4(index)).
//
// Only indices carrying a marker followed by at least one selector are valid:
// the bit length must be even and at least 4. Any other value, including 0,
// returns an error instead of a depth.
func Depth(index uint64) (int, error) {
	n := bits.Len64(index)
	if n < 4 || n%2 != 0 {
		return 0, errors.New("index has no leading marker").
			WithType(ErrTypeInvalidIndex).
			WithTag("index", index)
	}
	return (n - 1) / 2, nil
}

// Marker returns the leading 2-bit marker of index.
func Marker(index uint64) (uint64, error) {
	depth, err := Depth(index)
	if err != nil {
		return 0, err
	}
	return index >> (selectorBits * depth), nil
}

// Path returns the selectors of index from the root level down.
func Path(index uint64) ([]uint64, error) {
	depth, err := Depth(index)
	if err != nil {
		return nil, err
	}

	path := make([]uint64, depth)
	for i := range path {
		path[i] = Selector(index >> (selectorBits * (depth - 1 - i)))
	}
	return path, nil
}

// Range returns the half-open interval [lo, hi) holding the indices of all
// descendants of index at the given depth.
func Range(index uint64, depth int) (lo, hi uint64, err error) {
	d, err := Depth(index)
	if err != nil {
		return 0, 0, err
	}
	if depth < d || depth > MaxDepth {
		return 0, 0, errors.New("range depth out of bounds").
			WithType(ErrTypeInvalidDepth).
			WithTag("index", index).
			WithTag("index_depth", d).
			WithTag("depth", depth)
	}

	shift := selectorBits * (depth - d)
	return index << shift, (index + 1) << shift, nil
}

// Name returns the textual form of index: S or N followed by one digit per
// selector.
func Name(index uint64) (string, error) {
	marker, err := Marker(index)
	if err != nil {
		return "", err
	}
	path, _ := Path(index)

	var b strings.Builder
	b.Grow(len(path) + 1)

	if marker == MarkerNorth {
		b.WriteByte('N')
	} else {
		b.WriteByte('S')
	}
	for _, s := range path {
		b.WriteByte(byte('0' + s))
	}
	return b.String(), nil
}

// ParseName is the inverse of Name.
func ParseName(name string) (uint64, error) {
	if len(name) < 2 || len(name) > MaxDepth+1 {
		return 0, errors.New("invalid trixel name length").
			WithType(ErrTypeInvalidName).
			WithTag("name", name)
	}

	var index uint64
	switch name[0] {
	case 'S':
		index = MarkerSouth
	case 'N':
		index = MarkerNorth
	default:
		return 0, errors.New("invalid trixel name marker").
			WithType(ErrTypeInvalidName).
			WithTag("name", name)
	}

	for i := 1; i < len(name); i++ {
		c := name[i]
		if c < '0' || c > '3' {
			return 0, errors.New("invalid trixel name selector").
				WithType(ErrTypeInvalidName).
				WithTag("name", name).
				WithTag("position", i)
		}
		index = Child(index, uint64(c-'0'))
	}
	return index, nil
}

// LeafCount returns the number of leaves of a forest with the given number of
// roots built to depth.
func LeafCount(roots, depth int) uint64 {
	return uint64(roots) << (selectorBits * (effectiveDepth(depth) - 1))
}

// NodeCount returns the total number of trixels of a forest with the given
// number of roots built to depth.
func NodeCount(roots, depth int) uint64 {
	return uint64(roots) * ((uint64(1)<<(selectorBits*effectiveDepth(depth)) - 1) / 3)
}

// Roots always exist, so depth 0 builds the same forest as depth 1.
func effectiveDepth(depth int) int {
	if depth < 1 {
		return 1
	}
	return depth
}
