package htm

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func TestRayIntersectsTriangle(t *testing.T) {
	var origin r3.Vector
	tri := Triangle[r3.Vector]{Vec3(1, 0, 0), Vec3(0, 1, 0), Vec3(0, 0, 1)}

	t.Run("hit", func(t *testing.T) {
		require.True(t, RayIntersectsTriangle(origin, Vec3(1, 1, 1), tri))
		require.True(t, RayIntersectsTriangle(origin, Vec3(1e-9, 1e-9, 1e-9), tri))
		require.True(t, RayIntersectsTriangle(origin, Vec3(1e9, 1e9, 1e9), tri))
	})

	t.Run("vertices and edges are included", func(t *testing.T) {
		require.True(t, RayIntersectsTriangle(origin, Vec3(1, 0, 0), tri))
		require.True(t, RayIntersectsTriangle(origin, Vec3(1, 1, 0), tri))
	})

	t.Run("winding does not matter", func(t *testing.T) {
		require.True(t, RayIntersectsTriangle(origin, Vec3(1, 2, 3), Triangle[r3.Vector]{tri[0], tri[2], tri[1]}))
	})

	t.Run("miss", func(t *testing.T) {
		require.False(t, RayIntersectsTriangle(origin, Vec3(1, -1, 1), tri))
		require.False(t, RayIntersectsTriangle(origin, Vec3(0, 1, -1), tri))
	})

	t.Run("triangle behind the origin", func(t *testing.T) {
		require.False(t, RayIntersectsTriangle(origin, Vec3(-1, -1, -1), tri))
	})

	t.Run("ray parallel to the triangle", func(t *testing.T) {
		require.False(t, RayIntersectsTriangle(Vec3(0, 0, 2), Vec3(1, -1, 0), tri))
	})

	t.Run("tiny triangle", func(t *testing.T) {
		const e = 1.0 / (1 << 26)
		small := Triangle[r3.Vector]{Vec3(1, 0, 0), Vec3(1-e, e, 0), Vec3(1-e, 0, e)}
		require.True(t, RayIntersectsTriangle(origin, centroid3(small), small))
		require.False(t, RayIntersectsTriangle(origin, Vec3(1, 2*e, 2*e), small))
	})
}
