package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/htm/htm"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const (
	VariantSphere = "sphere"
	VariantPlane  = "plane"
)

// IndexStore holds the indexes served by a htm server. Indexes are built once
// and never modified, so a store can be shared between connections without
// locking.
type IndexStore struct {
	Sphere *htm.SphereIndex
	Plane  *htm.PlanarIndex
}

// NewIndexStore builds the sphere and planar indexes.
func NewIndexStore(sphereDepth, planeDepth int) (*IndexStore, error) {
	var store IndexStore

	err := instrumentBuild(VariantSphere, sphereDepth, func() error {
		var err error
		store.Sphere, err = htm.BuildSphere(sphereDepth)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = instrumentBuild(VariantPlane, planeDepth, func() error {
		var err error
		store.Plane, err = htm.BuildPlanar(planeDepth)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &store, nil
}

func (s *IndexStore) LocateSphere(direction r3.Vector) (htm.Trixel[r3.Vector], error) {
	var t htm.Trixel[r3.Vector]
	err := instrumentLocate(VariantSphere, func() error {
		var err error
		t, err = s.Sphere.LocateTrixel(direction)
		return err
	})
	return t, err
}

func (s *IndexStore) LocatePlane(point r2.Point) (htm.Trixel[r2.Point], error) {
	var t htm.Trixel[r2.Point]
	err := instrumentLocate(VariantPlane, func() error {
		var err error
		t, err = s.Plane.LocateTrixel(point)
		return err
	})
	return t, err
}

// ListSphere returns the sphere trixels at depth. It fails when there are
// more than limit of them.
func (s *IndexStore) ListSphere(depth, limit int) ([]htm.Trixel[r3.Vector], error) {
	return listAtDepth(s.Sphere.Forest, depth, limit)
}

// ListPlane returns the planar trixels at depth. It fails when there are more
// than limit of them.
func (s *IndexStore) ListPlane(depth, limit int) ([]htm.Trixel[r2.Point], error) {
	return listAtDepth(s.Plane.Forest, depth, limit)
}

func listAtDepth[V htm.Vertex[V]](f *htm.Forest[V], depth, limit int) ([]htm.Trixel[V], error) {
	if depth < 1 || depth > f.MaxDepth() {
		return nil, errors.New("listing depth is out of the index range").
			WithType(htm.ErrTypeInvalidDepth).
			WithTag("depth", depth).
			WithTag("max_depth", f.MaxDepth())
	}

	count := htm.LeafCount(len(f.Roots()), depth)
	if limit >= 0 && count > uint64(limit) {
		return nil, errors.New("listing has too many trixels").
			WithType(ErrTypeListingTooLarge).
			WithTag("depth", depth).
			WithTag("count", count).
			WithTag("limit", limit)
	}

	trixels := make([]htm.Trixel[V], 0, count)
	f.Walk(func(t htm.Trixel[V]) bool {
		if t.Depth == depth {
			trixels = append(trixels, t)
			return false
		}
		return true
	})
	return trixels, nil
}
