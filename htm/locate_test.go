package htm

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func centroid3(t Triangle[r3.Vector]) r3.Vector {
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3)
}

func centroid2(t Triangle[r2.Point]) r2.Point {
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3)
}

func TestSphereLocateCentroids(t *testing.T) {
	sphere, err := BuildSphere(4)
	require.NoError(t, err)

	sphere.Walk(func(tx Trixel[r3.Vector]) bool {
		if !tx.IsLeaf() {
			return true
		}

		c := centroid3(tx.Points)
		for _, scale := range []float64{1, 1e3, 1e-3, 1e-200, 1e200, 1e300} {
			index, err := sphere.Locate(c.Mul(scale))
			require.NoError(t, err)
			require.Equal(t, tx.Index, index, "scale %v", scale)
		}

		located, err := sphere.LocateTrixel(c.Normalize())
		require.NoError(t, err)
		require.Equal(t, tx, located)
		return true
	})
}

func TestSphereLocateVertices(t *testing.T) {
	sphere, err := BuildSphere(4)
	require.NoError(t, err)

	axes := []r3.Vector{
		Vec3(1, 0, 0), Vec3(-1, 0, 0),
		Vec3(0, 1, 0), Vec3(0, -1, 0),
		Vec3(0, 0, 1), Vec3(0, 0, -1),
	}
	for _, axis := range axes {
		tx, err := sphere.LocateTrixel(axis)
		require.NoError(t, err)
		require.True(t, tx.IsLeaf(), axis.String())
		require.Contains(t, tx.Points[:], axis)
	}

	t.Run("corner directions follow the corner selectors", func(t *testing.T) {
		index, err := sphere.Locate(Vec3(1, 0, 0))
		require.NoError(t, err)
		name, _ := Name(index)
		require.Equal(t, "S0000", name)

		index, err = sphere.Locate(Vec3(0, 0, -1))
		require.NoError(t, err)
		name, _ = Name(index)
		require.Equal(t, "S0100", name)
	})

	t.Run("deep leaf vertices", func(t *testing.T) {
		const depth = 12

		deep, err := BuildSphere(depth)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 500; i++ {
			index := MarkerSouth<<selectorBits | uint64(rng.Intn(8))
			for d := 1; d < depth; d++ {
				index = Child(index, uint64(rng.Intn(4)))
			}

			leaf, err := deep.Lookup(index)
			require.NoError(t, err)
			require.True(t, leaf.IsLeaf())

			for _, v := range leaf.Points {
				located, err := deep.LocateTrixel(v)
				require.NoError(t, err)
				require.True(t, located.IsLeaf())
				require.Contains(t, located.Points[:], v, "vertex of %d", index)
			}
		}
	})
}

func TestSphereLocateBoundary(t *testing.T) {
	sphere, err := BuildSphere(5)
	require.NoError(t, err)

	// Directions on edges shared by several trixels.
	directions := []r3.Vector{
		Vec3(1, 1, 0),
		Vec3(1, 0, -1),
		Vec3(1, 1, 1),
		Vec3(0.3, 0, 0.7),
	}
	for _, d := range directions {
		tx, err := sphere.LocateTrixel(d)
		require.NoError(t, err)
		require.LessOrEqual(t, tx.Depth, sphere.MaxDepth())
		require.True(t, RayIntersectsTriangle(r3.Vector{}, d, tx.Points), d.String())
	}
}

func TestLocateFallsBackToParent(t *testing.T) {
	sphere, err := BuildSphere(3)
	require.NoError(t, err)

	target := sphere.Roots()[2]

	// Only the root itself is accepted: none of its children are.
	tx, ok := sphere.Forest.Locate(func(tri Triangle[r3.Vector]) bool {
		return tri == target.Points
	})
	require.True(t, ok)
	require.Equal(t, target.Index, tx.Index)
	require.False(t, tx.IsLeaf())

	_, ok = sphere.Forest.Locate(func(Triangle[r3.Vector]) bool {
		return false
	})
	require.False(t, ok)
}

func TestSphereLocateInvalidDirection(t *testing.T) {
	sphere, err := BuildSphere(3)
	require.NoError(t, err)

	for _, d := range []r3.Vector{
		{},
		Vec3(math.NaN(), 0, 1),
		Vec3(math.Inf(1), 0, 0),
	} {
		_, err := sphere.Locate(d)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidDirection))
	}
}

func TestSphereLocateTinyDirection(t *testing.T) {
	sphere, err := BuildSphere(10)
	require.NoError(t, err)

	d := Vec3(0.31, -0.52, 0.79)
	want, err := sphere.Locate(d)
	require.NoError(t, err)

	for _, scale := range []float64{1e-170, 1e-200, 1e-300} {
		index, err := sphere.Locate(d.Mul(scale))
		require.NoError(t, err, "scale %v", scale)
		require.Equal(t, want, index, "scale %v", scale)
	}

	tx, err := sphere.LocateTrixel(Vec3(0, 0, math.SmallestNonzeroFloat64))
	require.NoError(t, err)
	require.Contains(t, tx.Points[:], Vec3(0, 0, 1))
}

func TestSphereLocateRADec(t *testing.T) {
	sphere, err := BuildSphere(6)
	require.NoError(t, err)

	pole := DirectionFromRADec(0, 90)
	require.InDelta(t, 1, pole.Z, 1e-12)

	index, err := sphere.Locate(DirectionFromRADec(45, 45))
	require.NoError(t, err)
	name, err := Name(index)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(name, "N3"), name)
	require.Len(t, name, 7)

	index, err = sphere.Locate(DirectionFromRADec(45, -45))
	require.NoError(t, err)
	name, _ = Name(index)
	require.True(t, strings.HasPrefix(name, "S0"), name)
}

func TestPlanarLocate(t *testing.T) {
	planar, err := BuildPlanar(4)
	require.NoError(t, err)

	t.Run("centroids", func(t *testing.T) {
		planar.Walk(func(tx Trixel[r2.Point]) bool {
			if !tx.IsLeaf() {
				return true
			}

			index, err := planar.Locate(centroid2(tx.Points))
			require.NoError(t, err)
			require.Equal(t, tx.Index, index)
			return true
		})
	})

	t.Run("roots", func(t *testing.T) {
		tx, err := planar.LocateTrixel(Vec2(0.5, -0.9))
		require.NoError(t, err)
		require.Equal(t, uint64(0b10_00), Parent(Parent(Parent(tx.Index))))

		tx, err = planar.LocateTrixel(Vec2(-0.9, 0.2))
		require.NoError(t, err)
		require.Equal(t, uint64(0b10_11), Parent(Parent(Parent(tx.Index))))
	})

	t.Run("corner", func(t *testing.T) {
		tx, err := planar.LocateTrixel(Vec2(1, 1))
		require.NoError(t, err)
		require.True(t, tx.IsLeaf())
		require.Contains(t, tx.Points[:], Vec2(1, 1))
	})

	t.Run("outside", func(t *testing.T) {
		_, err := planar.Locate(Vec2(1.5, 0))
		require.True(t, errors.IsType(err, ErrTypeOutOfDomain))
	})

	t.Run("not finite", func(t *testing.T) {
		_, err := planar.Locate(Vec2(math.NaN(), 0))
		require.True(t, errors.IsType(err, ErrTypeInvalidDirection))
	})
}

func TestPointInTriangle(t *testing.T) {
	tri := Triangle[r2.Point]{Vec2(0, 0), Vec2(2, 0), Vec2(0, 2)}
	require.True(t, PointInTriangle(Vec2(0.5, 0.5), tri))
	require.True(t, PointInTriangle(Vec2(1, 1), tri))
	require.True(t, PointInTriangle(Vec2(0, 0), tri))
	require.False(t, PointInTriangle(Vec2(1.5, 1.5), tri))
	require.False(t, PointInTriangle(Vec2(-0.1, 0.5), tri))

	// Winding does not matter.
	require.True(t, PointInTriangle(Vec2(0.5, 0.5), Triangle[r2.Point]{tri[0], tri[2], tri[1]}))
}
