package htm

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r3"
)

// Sphere seeds the 8 faces of the octahedron inscribed in the unit sphere: a
// south ring sharing -Z followed by a north ring sharing +Z.
type Sphere struct{}

func (Sphere) Roots() []Root[r3.Vector] {
	v0 := Vec3(0, 0, 1)
	v1 := Vec3(1, 0, 0)
	v2 := Vec3(0, 1, 0)
	v3 := Vec3(-1, 0, 0)
	v4 := Vec3(0, -1, 0)
	v5 := Vec3(0, 0, -1)

	return []Root[r3.Vector]{
		{Index: Child(MarkerSouth, 0), Points: Triangle[r3.Vector]{v1, v5, v2}},
		{Index: Child(MarkerSouth, 1), Points: Triangle[r3.Vector]{v2, v5, v3}},
		{Index: Child(MarkerSouth, 2), Points: Triangle[r3.Vector]{v3, v5, v4}},
		{Index: Child(MarkerSouth, 3), Points: Triangle[r3.Vector]{v4, v5, v1}},
		{Index: Child(MarkerNorth, 0), Points: Triangle[r3.Vector]{v1, v0, v4}},
		{Index: Child(MarkerNorth, 1), Points: Triangle[r3.Vector]{v4, v0, v3}},
		{Index: Child(MarkerNorth, 2), Points: Triangle[r3.Vector]{v3, v0, v2}},
		{Index: Child(MarkerNorth, 3), Points: Triangle[r3.Vector]{v2, v0, v1}},
	}
}

// SphereIndex is a forest over the unit sphere.
type SphereIndex struct {
	*Forest[r3.Vector]
}

// BuildSphere builds a sphere forest to maxDepth.
func BuildSphere(maxDepth int) (*SphereIndex, error) {
	f, err := Build[r3.Vector](Sphere{}, maxDepth)
	if err != nil {
		return nil, err
	}
	return &SphereIndex{Forest: f}, nil
}

// Locate returns the index of the deepest trixel pierced by the ray cast
// from the sphere center along direction. Only the direction of the vector
// matters; it must be finite and nonzero.
func (s *SphereIndex) Locate(direction r3.Vector) (uint64, error) {
	t, err := s.LocateTrixel(direction)
	if err != nil {
		return 0, err
	}
	return t.Index, nil
}

// LocateTrixel is like Locate but returns the whole trixel.
func (s *SphereIndex) LocateTrixel(direction r3.Vector) (Trixel[r3.Vector], error) {
	if !isFinite3(direction) || direction == (r3.Vector{}) {
		return Trixel[r3.Vector]{}, errors.New("direction must be finite and nonzero").
			WithType(ErrTypeInvalidDirection).
			WithTag("direction", direction.String())
	}
	direction = scaleToUnitMax(direction)

	var origin r3.Vector
	t, ok := s.Forest.Locate(func(tri Triangle[r3.Vector]) bool {
		return RayIntersectsTriangle(origin, direction, tri)
	})
	if !ok {
		return Trixel[r3.Vector]{}, errors.New("direction pierces no root trixel").
			WithType(ErrTypeOutOfDomain).
			WithTag("direction", direction.String())
	}
	return t, nil
}

// scaleToUnitMax divides v by its largest absolute component so the ray test
// products neither underflow nor overflow.
func scaleToUnitMax(v r3.Vector) r3.Vector {
	m := math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
	return r3.Vector{X: v.X / m, Y: v.Y / m, Z: v.Z / m}
}
