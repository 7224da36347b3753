// Package htm builds Hierarchical Triangular Meshes: recursive 4-way
// subdivisions of a planar square or of the octahedron inscribed in the unit
// sphere, where every triangle (trixel) carries a bit-packed hierarchical
// index.
//
// Indices are laid out as a 2-bit marker followed by one 2-bit selector per
// level, most significant level first:
//
//	S0   = 0b10_00
//	N3   = 0b11_11
//	N31  = 0b11_11_01
//
// Selector k names the child produced by Subdivide at position k: 0, 1 and 2
// are the corners at the parent's vertices 0, 1 and 2, 3 is the center.
//
// Basic usage:
//
//	sphere, err := htm.BuildSphere(20)
//	index, err := sphere.Locate(htm.DirectionFromRADec(ra, dec))
//	name, _ := htm.Name(index)
//
// Forests are implicit complete trees: a trixel's children are derived from
// its vertices by Subdivide when they are visited. Every call yields the same
// indices and bit-identical vertices, so a forest behaves as if all of its
// nodes had been materialized, at any depth up to MaxDepth. Forests are
// immutable and safe for concurrent use.
package htm
