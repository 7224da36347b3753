package htm

// Vertex is a position that supports the arithmetic needed to subdivide a
// triangle. It is implemented by r2.Point and r3.Vector.
type Vertex[V any] interface {
	Add(V) V
	Mul(float64) V
}

// Triangle is an ordered vertex triple. Winding is preserved by Subdivide.
type Triangle[V Vertex[V]] [3]V

// Subdivide splits t into 4 triangles through its edge midpoints
// w0 = mid(v1, v2), w1 = mid(v0, v2) and w2 = mid(v0, v1). The result order
// defines the quadrant selectors:
//
//	0: [v0, w2, w1]
//	1: [v1, w0, w2]
//	2: [v2, w1, w0]
//	3: [w0, w1, w2]
//
// Each corner child keeps its parent vertex at position 0 and all 4 children
// keep the winding of t, so together they tile t without gaps or overlaps.
func Subdivide[V Vertex[V]](t Triangle[V]) [4]Triangle[V] {
	v0, v1, v2 := t[0], t[1], t[2]

	w0 := midpoint(v1, v2)
	w1 := midpoint(v0, v2)
	w2 := midpoint(v0, v1)

	return [4]Triangle[V]{
		{v0, w2, w1},
		{v1, w0, w2},
		{v2, w1, w0},
		{w0, w1, w2},
	}
}

func midpoint[V Vertex[V]](a, b V) V {
	return a.Add(b).Mul(0.5)
}
