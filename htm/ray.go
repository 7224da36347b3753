package htm

import (
	"github.com/golang/geo/r3"
)

// RayIntersectsTriangle reports whether the ray starting at origin and going
// along direction crosses t, edges and vertices included. The magnitude of
// direction does not matter.
func RayIntersectsTriangle(origin, direction r3.Vector, t Triangle[r3.Vector]) bool {
	// Möller-Trumbore with the barycentric coordinates kept scaled by the
	// determinant. Deep trixels have tiny determinants, so there is no
	// parallelism epsilon and no division.
	edge1 := t[1].Sub(t[0])
	edge2 := t[2].Sub(t[0])

	h := direction.Cross(edge2)
	det := edge1.Dot(h)
	if det == 0 || !isFinite(det) {
		return false
	}

	s := origin.Sub(t[0])
	q := s.Cross(edge1)

	u := s.Dot(h)
	v := direction.Dot(q)
	dist := edge2.Dot(q)
	if det < 0 {
		det, u, v, dist = -det, -u, -v, -dist
	}

	return u >= 0 && v >= 0 && u+v <= det && dist > 0
}
