package htm

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r3"
)

// HalfSpace is the side of a plane its unit normal points to. Distance is the
// signed distance from the plane to the origin: negative when the origin lies
// behind the plane.
type HalfSpace struct {
	Normal   r3.Vector
	Distance float64
}

// PlaneOf returns the half-space bounded by the plane through the points of
// t. The normal is (v1-v0) x (v2-v0) normalized, so flipping the winding of
// t flips the half-space. Collinear points return an error.
func PlaneOf(t Triangle[r3.Vector]) (HalfSpace, error) {
	cross := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n2 := cross.Norm2(); n2 == 0 || !isFinite(n2) {
		return HalfSpace{}, errors.New("triangle has no plane").
			WithType(ErrTypeDegenerateTriangle).
			WithTag("triangle", fmt.Sprint(t[0], t[1], t[2]))
	}

	normal := cross.Normalize()

	// Plane a*x + b*y + c*z + d = 0 through v0.
	d := -normal.Dot(t[0])

	return HalfSpace{
		Normal:   normal,
		Distance: distanceToPlane(normal, d, r3.Vector{}),
	}, nil
}

func distanceToPlane(normal r3.Vector, d float64, p r3.Vector) float64 {
	return (normal.Dot(p) + d) / normal.Norm2()
}

// SignedDistance returns the distance from the plane to p, positive on the
// normal side.
func (h HalfSpace) SignedDistance(p r3.Vector) float64 {
	return h.Normal.Dot(p) + h.Distance
}

// Contains reports whether p lies on the plane or on its normal side.
func (h HalfSpace) Contains(p r3.Vector) bool {
	return h.SignedDistance(p) >= 0
}

func (h HalfSpace) String() string {
	return fmt.Sprintf("HalfSpace{Normal: %v, Distance: %v}", h.Normal, h.Distance)
}
