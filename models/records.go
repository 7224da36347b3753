package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/htm/htm"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const (
	ErrTypeBadRequest      = "bad_request"
	ErrTypeListingTooLarge = "listing_too_large"
)

// TrixelRecord is the wire representation of a trixel.
type TrixelRecord struct {
	Index    uint64      `json:"index"`
	Name     string      `json:"name"`
	Depth    int         `json:"depth"`
	Leaf     bool        `json:"leaf"`
	Vertices [][]float64 `json:"vertices"`
	Children []string    `json:"children,omitempty"`
	Range    []uint64    `json:"range,omitempty"`
}

func NewSphereTrixelRecord(t htm.Trixel[r3.Vector]) TrixelRecord {
	vertices := make([][]float64, len(t.Points))
	for i, p := range t.Points {
		vertices[i] = []float64{p.X, p.Y, p.Z}
	}
	return newTrixelRecord(t.Index, t.Depth, t.IsLeaf(), vertices)
}

func NewPlaneTrixelRecord(t htm.Trixel[r2.Point]) TrixelRecord {
	vertices := make([][]float64, len(t.Points))
	for i, p := range t.Points {
		vertices[i] = []float64{p.X, p.Y}
	}
	return newTrixelRecord(t.Index, t.Depth, t.IsLeaf(), vertices)
}

func newTrixelRecord(index uint64, depth int, leaf bool, vertices [][]float64) TrixelRecord {
	// Trixels always come from a forest, their index is valid.
	name, _ := htm.Name(index)

	return TrixelRecord{
		Index:    index,
		Name:     name,
		Depth:    depth,
		Leaf:     leaf,
		Vertices: vertices,
	}
}

// AddDetails sets the names of the trixel children and the range of its
// descendants at leafDepth.
func (r *TrixelRecord) AddDetails(leafDepth int) error {
	lo, hi, err := htm.Range(r.Index, leafDepth)
	if err != nil {
		return err
	}
	r.Range = []uint64{lo, hi}

	if r.Leaf {
		return nil
	}

	r.Children = make([]string, 4)
	for k := range r.Children {
		name, err := htm.Name(htm.Child(r.Index, uint64(k)))
		if err != nil {
			return err
		}
		r.Children[k] = name
	}
	return nil
}

// LocateRequest asks for the trixel of a position. Sphere positions are given
// either as a X, Y, Z direction or as RA and Dec in degrees. Planar positions
// use X and Y.
type LocateRequest struct {
	ID      string   `json:"id,omitempty"`
	Variant string   `json:"variant,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Z       *float64 `json:"z,omitempty"`
	RA      *float64 `json:"ra,omitempty"`
	Dec     *float64 `json:"dec,omitempty"`
}

// Direction returns the sphere direction described by the request.
func (r LocateRequest) Direction() (r3.Vector, error) {
	switch {
	case r.RA != nil && r.Dec != nil:
		if r.X != nil || r.Y != nil || r.Z != nil {
			return r3.Vector{}, errors.New("ra/dec and x/y/z are mutually exclusive").
				WithType(ErrTypeBadRequest)
		}
		return htm.DirectionFromRADec(*r.RA, *r.Dec), nil

	case r.X != nil && r.Y != nil && r.Z != nil:
		if r.RA != nil || r.Dec != nil {
			return r3.Vector{}, errors.New("ra/dec and x/y/z are mutually exclusive").
				WithType(ErrTypeBadRequest)
		}
		return htm.Vec3(*r.X, *r.Y, *r.Z), nil

	default:
		return r3.Vector{}, errors.New("missing sphere coordinates").
			WithType(ErrTypeBadRequest)
	}
}

// Point returns the planar point described by the request.
func (r LocateRequest) Point() (r2.Point, error) {
	if r.X == nil || r.Y == nil {
		return r2.Point{}, errors.New("missing planar coordinates").
			WithType(ErrTypeBadRequest)
	}
	if r.Z != nil || r.RA != nil || r.Dec != nil {
		return r2.Point{}, errors.New("planar coordinates only have x and y").
			WithType(ErrTypeBadRequest)
	}
	return htm.Vec2(*r.X, *r.Y), nil
}

type LocateResponse struct {
	ID      string       `json:"id,omitempty"`
	Variant string       `json:"variant"`
	Trixel  TrixelRecord `json:"trixel"`
}

// HalfSpaceRequest carries the 3 vertices of a triangle.
type HalfSpaceRequest struct {
	Vertices [][]float64 `json:"vertices"`
}

func (r HalfSpaceRequest) Triangle() (htm.Triangle[r3.Vector], error) {
	var t htm.Triangle[r3.Vector]
	if len(r.Vertices) != len(t) {
		return t, errors.New("a triangle needs 3 vertices").
			WithType(ErrTypeBadRequest).
			WithTag("count", len(r.Vertices))
	}

	for i, v := range r.Vertices {
		if len(v) != 3 {
			return t, errors.New("a vertex needs 3 coordinates").
				WithType(ErrTypeBadRequest).
				WithTag("vertex", i).
				WithTag("count", len(v))
		}
		t[i] = htm.Vec3(v[0], v[1], v[2])
	}
	return t, nil
}

type HalfSpaceRecord struct {
	Normal   []float64 `json:"normal"`
	Distance float64   `json:"distance"`
}

func NewHalfSpaceRecord(h htm.HalfSpace) HalfSpaceRecord {
	return HalfSpaceRecord{
		Normal:   []float64{h.Normal.X, h.Normal.Y, h.Normal.Z},
		Distance: h.Distance,
	}
}

type ErrorResponse struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorResponse(id string, err error) ErrorResponse {
	return ErrorResponse{
		ID:      id,
		Type:    errors.Type(err),
		Message: err.Error(),
	}
}
