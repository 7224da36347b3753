package htm

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func TestPlaneOf(t *testing.T) {
	tri := Triangle[r3.Vector]{
		Vec3(0.5, 0.5, math.Sqrt(0.5)),
		Vec3(0.5, 0.5, -math.Sqrt(0.5)),
		Vec3(0, 1, 0),
	}

	h, err := PlaneOf(tri)
	require.NoError(t, err)
	require.InDelta(t, 1, h.Normal.Norm(), 1e-12)
	require.InDelta(t, math.Sqrt(0.5), h.Normal.X, 1e-12)
	require.InDelta(t, math.Sqrt(0.5), h.Normal.Y, 1e-12)
	require.InDelta(t, 0, h.Normal.Z, 1e-12)
	require.False(t, math.IsNaN(h.Distance) || math.IsInf(h.Distance, 0))
	require.InDelta(t, -math.Sqrt(0.5), h.Distance, 1e-12)

	t.Run("pure", func(t *testing.T) {
		again, err := PlaneOf(tri)
		require.NoError(t, err)
		require.Equal(t, h, again)
		require.Equal(t, math.Float64bits(h.Distance), math.Float64bits(again.Distance))
	})

	t.Run("winding flips the half-space", func(t *testing.T) {
		flipped, err := PlaneOf(Triangle[r3.Vector]{tri[0], tri[2], tri[1]})
		require.NoError(t, err)
		require.InDelta(t, -h.Normal.X, flipped.Normal.X, 1e-12)
		require.InDelta(t, -h.Distance, flipped.Distance, 1e-12)
	})

	t.Run("containment", func(t *testing.T) {
		require.False(t, h.Contains(r3.Vector{}))
		require.True(t, h.Contains(Vec3(1, 1, 0)))
		require.InDelta(t, 0, h.SignedDistance(tri[2]), 1e-12)
		require.InDelta(t, math.Sqrt(2)-math.Sqrt(0.5), h.SignedDistance(Vec3(1, 1, 0)), 1e-12)
	})

	t.Run("string", func(t *testing.T) {
		require.Contains(t, h.String(), "Distance")
	})
}

func TestPlaneOfSphereRoots(t *testing.T) {
	for _, r := range (Sphere{}).Roots() {
		h, err := PlaneOf(r.Points)
		require.NoError(t, err)

		// Octahedron faces are wound outward and lie 1/sqrt(3) from the
		// center.
		require.InDelta(t, -1/math.Sqrt(3), h.Distance, 1e-12)
		require.True(t, h.Contains(centroid3(r.Points).Mul(2)))
	}
}

func TestPlaneOfDegenerate(t *testing.T) {
	_, err := PlaneOf(Triangle[r3.Vector]{Vec3(0, 0, 0), Vec3(1, 1, 1), Vec3(2, 2, 2)})
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeDegenerateTriangle))
}
