package htm

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func TestSubdivide(t *testing.T) {
	t.Run("planar", func(t *testing.T) {
		children := Subdivide(Triangle[r2.Point]{Vec2(0, 0), Vec2(4, 0), Vec2(0, 4)})

		require.Equal(t, [4]Triangle[r2.Point]{
			{Vec2(0, 0), Vec2(2, 0), Vec2(0, 2)},
			{Vec2(4, 0), Vec2(2, 2), Vec2(2, 0)},
			{Vec2(0, 4), Vec2(0, 2), Vec2(2, 2)},
			{Vec2(2, 2), Vec2(0, 2), Vec2(2, 0)},
		}, children)
	})

	t.Run("spatial", func(t *testing.T) {
		children := Subdivide(Triangle[r3.Vector]{Vec3(1, 0, 0), Vec3(0, 0, -1), Vec3(0, 1, 0)})

		w0 := Vec3(0, 0.5, -0.5)
		w1 := Vec3(0.5, 0.5, 0)
		w2 := Vec3(0.5, 0, -0.5)
		require.Equal(t, [4]Triangle[r3.Vector]{
			{Vec3(1, 0, 0), w2, w1},
			{Vec3(0, 0, -1), w0, w2},
			{Vec3(0, 1, 0), w1, w0},
			{w0, w1, w2},
		}, children)
	})
}

func TestSubdividePartition(t *testing.T) {
	parent := Triangle[r2.Point]{Vec2(-0.3, 0.1), Vec2(0.9, -0.7), Vec2(0.2, 0.8)}
	children := Subdivide(parent)

	var sum float64
	for _, c := range children {
		area := triangleArea(c)
		require.InDelta(t, triangleArea(parent)/4, area, 1e-12)
		sum += area
	}
	require.InDelta(t, triangleArea(parent), sum, 1e-12)

	// Corners keep the parent vertices at position 0.
	for k := 0; k < 3; k++ {
		require.Equal(t, parent[k], children[k][0])
	}

	// Every child vertex is a parent vertex or an edge midpoint.
	allowed := []r2.Point{
		parent[0], parent[1], parent[2],
		midpoint(parent[1], parent[2]),
		midpoint(parent[0], parent[2]),
		midpoint(parent[0], parent[1]),
	}
	for _, c := range children {
		for _, v := range c {
			require.Contains(t, allowed, v)
		}
	}
}

func TestSubdivideCoverage(t *testing.T) {
	parent := Triangle[r2.Point]{Vec2(-0.3, 0.1), Vec2(0.9, -0.7), Vec2(0.2, 0.8)}
	children := Subdivide(parent)

	// Barycentric samples strictly inside the parent, away from the child
	// edges, fall in exactly one child.
	const n = 23
	for i := 1; i < n; i++ {
		for j := 1; i+j < n; j++ {
			a := (float64(i) + 0.1) / n
			b := (float64(j) + 0.2) / n
			p := parent[0].Mul(1 - a - b).Add(parent[1].Mul(a)).Add(parent[2].Mul(b))

			var count int
			for _, c := range children {
				if PointInTriangle(p, c) {
					count++
				}
			}
			require.Equal(t, 1, count, "a=%v b=%v", a, b)
		}
	}
}

func TestSubdivideWinding(t *testing.T) {
	parent := Triangle[r2.Point]{Vec2(-0.3, 0.1), Vec2(0.9, -0.7), Vec2(0.2, 0.8)}
	orientation := func(t Triangle[r2.Point]) float64 {
		return t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	}

	for _, c := range Subdivide(parent) {
		require.Greater(t, orientation(c)*orientation(parent), 0.0)
	}
}

func triangleArea(t Triangle[r2.Point]) float64 {
	return math.Abs(t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))) / 2
}
