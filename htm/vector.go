package htm

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

func Vec2(x, y float64) r2.Point {
	return r2.Point{X: x, Y: y}
}

func Vec3(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// DirectionFromRADec returns the unit vector pointing at the given equatorial
// sky position. Angles are in degrees; +Z is the north celestial pole and +X
// points at ra = 0, dec = 0.
func DirectionFromRADec(ra, dec float64) r3.Vector {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(dec, ra)).Vector
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isFinite2(p r2.Point) bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func isFinite3(v r3.Vector) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}
