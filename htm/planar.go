package htm

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
)

// Planar seeds the 4 triangles fanning from the origin to the corners of the
// square [-1, 1] x [-1, 1], counter-clockwise from (-1, -1). All of them
// carry the south marker.
type Planar struct{}

func (Planar) Roots() []Root[r2.Point] {
	v0 := Vec2(0, 0)
	v1 := Vec2(-1, -1)
	v2 := Vec2(1, -1)
	v3 := Vec2(1, 1)
	v4 := Vec2(-1, 1)

	return []Root[r2.Point]{
		{Index: Child(MarkerSouth, 0), Points: Triangle[r2.Point]{v0, v1, v2}},
		{Index: Child(MarkerSouth, 1), Points: Triangle[r2.Point]{v0, v2, v3}},
		{Index: Child(MarkerSouth, 2), Points: Triangle[r2.Point]{v0, v3, v4}},
		{Index: Child(MarkerSouth, 3), Points: Triangle[r2.Point]{v0, v4, v1}},
	}
}

// PlanarIndex is a forest over the square [-1, 1] x [-1, 1].
type PlanarIndex struct {
	*Forest[r2.Point]
}

// BuildPlanar builds a planar forest to maxDepth.
func BuildPlanar(maxDepth int) (*PlanarIndex, error) {
	f, err := Build[r2.Point](Planar{}, maxDepth)
	if err != nil {
		return nil, err
	}
	return &PlanarIndex{Forest: f}, nil
}

// Locate returns the index of the deepest trixel containing p. Points on
// shared edges resolve to the first trixel in selector order.
func (p *PlanarIndex) Locate(point r2.Point) (uint64, error) {
	t, err := p.LocateTrixel(point)
	if err != nil {
		return 0, err
	}
	return t.Index, nil
}

// LocateTrixel is like Locate but returns the whole trixel.
func (p *PlanarIndex) LocateTrixel(point r2.Point) (Trixel[r2.Point], error) {
	if !isFinite2(point) {
		return Trixel[r2.Point]{}, errors.New("point must be finite").
			WithType(ErrTypeInvalidDirection).
			WithTag("point", point.String())
	}

	t, ok := p.Forest.Locate(func(tri Triangle[r2.Point]) bool {
		return PointInTriangle(point, tri)
	})
	if !ok {
		return Trixel[r2.Point]{}, errors.New("point is outside of the planar domain").
			WithType(ErrTypeOutOfDomain).
			WithTag("point", point.String())
	}
	return t, nil
}

// PointInTriangle reports whether p lies inside t or on its boundary,
// whatever the winding of t.
func PointInTriangle(p r2.Point, t Triangle[r2.Point]) bool {
	d0 := t[1].Sub(t[0]).Cross(p.Sub(t[0]))
	d1 := t[2].Sub(t[1]).Cross(p.Sub(t[1]))
	d2 := t[0].Sub(t[2]).Cross(p.Sub(t[2]))

	hasNeg := d0 < 0 || d1 < 0 || d2 < 0
	hasPos := d0 > 0 || d1 > 0 || d2 > 0
	return !(hasNeg && hasPos)
}
