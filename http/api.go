package http

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/htm/featureflag"
	"github.com/aukilabs/htm/htm"
	"github.com/aukilabs/htm/models"
	"github.com/segmentio/encoding/json"
)

const (
	DefaultMaxTrixelListing = 4096

	maxBodySize = 1 << 16
)

// API serves the index lookups over HTTP.
type API struct {
	Store *models.IndexStore

	// Disables the routes of the matching features.
	Flags featureflag.FeatureFlag

	// The max number of trixels returned by a listing.
	MaxTrixelListing int
}

// Register adds the API routes to mux. Each route is wrapped with CORS
// headers.
func (a *API) Register(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, HandleWithCORS(h))
	}

	handle("GET /v1/sphere/locate", a.HandleSphereLocate)
	handle("GET /v1/sphere/trixels/{id}", a.HandleSphereTrixel)
	a.Flags.IfNotSet(featureflag.FlagDisableTrixelListing, func() {
		handle("GET /v1/sphere/trixels", a.HandleSphereTrixels)
	})

	a.Flags.IfNotSet(featureflag.FlagDisablePlanarIndex, func() {
		handle("GET /v1/plane/locate", a.HandlePlaneLocate)
		handle("GET /v1/plane/trixels/{id}", a.HandlePlaneTrixel)
		a.Flags.IfNotSet(featureflag.FlagDisableTrixelListing, func() {
			handle("GET /v1/plane/trixels", a.HandlePlaneTrixels)
		})
	})

	a.Flags.IfNotSet(featureflag.FlagDisableHalfSpace, func() {
		handle("POST /v1/halfspace", a.HandleHalfSpace)
	})
}

func (a *API) HandleSphereLocate(w http.ResponseWriter, r *http.Request) {
	req, err := parseLocateRequest(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	direction, err := req.Direction()
	if err != nil {
		writeError(w, r, err)
		return
	}

	trixel, err := a.Store.LocateSphere(direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTrixel(w, r, models.NewSphereTrixelRecord(trixel))
}

func (a *API) HandlePlaneLocate(w http.ResponseWriter, r *http.Request) {
	req, err := parseLocateRequest(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	point, err := req.Point()
	if err != nil {
		writeError(w, r, err)
		return
	}

	trixel, err := a.Store.LocatePlane(point)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTrixel(w, r, models.NewPlaneTrixelRecord(trixel))
}

func (a *API) HandleSphereTrixel(w http.ResponseWriter, r *http.Request) {
	index, err := parseTrixelID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	trixel, err := a.Store.Sphere.Lookup(index)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record := models.NewSphereTrixelRecord(trixel)
	if err := record.AddDetails(a.Store.Sphere.MaxDepth()); err != nil {
		writeError(w, r, err)
		return
	}
	writeTrixel(w, r, record)
}

func (a *API) HandlePlaneTrixel(w http.ResponseWriter, r *http.Request) {
	index, err := parseTrixelID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	trixel, err := a.Store.Plane.Lookup(index)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record := models.NewPlaneTrixelRecord(trixel)
	if err := record.AddDetails(a.Store.Plane.MaxDepth()); err != nil {
		writeError(w, r, err)
		return
	}
	writeTrixel(w, r, record)
}

func (a *API) HandleSphereTrixels(w http.ResponseWriter, r *http.Request) {
	depth, err := parseDepth(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	trixels, err := a.Store.ListSphere(depth, a.MaxTrixelListing)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeTrixels(w, r, depth, mapRecords(trixels, models.NewSphereTrixelRecord))
}

func (a *API) HandlePlaneTrixels(w http.ResponseWriter, r *http.Request) {
	depth, err := parseDepth(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	trixels, err := a.Store.ListPlane(depth, a.MaxTrixelListing)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeTrixels(w, r, depth, mapRecords(trixels, models.NewPlaneTrixelRecord))
}

func (a *API) HandleHalfSpace(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, r, errors.New("reading body failed").
			WithType(models.ErrTypeBadRequest).
			Wrap(err))
		return
	}

	var req models.HalfSpaceRequest
	if err := json.Unmarshal(b, &req); err != nil {
		writeError(w, r, errors.New("decoding body failed").
			WithType(models.ErrTypeBadRequest).
			Wrap(err))
		return
	}

	triangle, err := req.Triangle()
	if err != nil {
		writeError(w, r, err)
		return
	}

	halfSpace, err := htm.PlaneOf(triangle)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewHalfSpaceRecord(halfSpace))
}

// TrixelList is the JSON body of a trixel listing.
type TrixelList struct {
	Depth   int                   `json:"depth"`
	Trixels []models.TrixelRecord `json:"trixels"`
}

func writeTrixel(w http.ResponseWriter, r *http.Request, record models.TrixelRecord) {
	if wantsProtobuf(r) {
		writeProtobuf(w, http.StatusOK, AppendTrixelRecord(nil, record))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeTrixels(w http.ResponseWriter, r *http.Request, depth int, records []models.TrixelRecord) {
	if wantsProtobuf(r) {
		writeProtobuf(w, http.StatusOK, AppendTrixelList(nil, records))
		return
	}
	writeJSON(w, http.StatusOK, TrixelList{
		Depth:   depth,
		Trixels: records,
	})
}

func mapRecords[V htm.Vertex[V]](trixels []htm.Trixel[V], newRecord func(htm.Trixel[V]) models.TrixelRecord) []models.TrixelRecord {
	records := make([]models.TrixelRecord, len(trixels))
	for i, t := range trixels {
		records[i] = newRecord(t)
	}
	return records
}

// parseTrixelID accepts a trixel name like N31 or an index, either decimal or
// prefixed like 0b111101.
func parseTrixelID(id string) (uint64, error) {
	if id != "" && (id[0] == 'S' || id[0] == 'N') {
		return htm.ParseName(id)
	}

	index, err := strconv.ParseUint(id, 0, 64)
	if err != nil {
		return 0, errors.New("invalid trixel id").
			WithType(models.ErrTypeBadRequest).
			WithTag("id", id).
			Wrap(err)
	}
	return index, nil
}

func parseLocateRequest(q url.Values) (models.LocateRequest, error) {
	var req models.LocateRequest
	var err error

	params := []struct {
		name  string
		value **float64
	}{
		{name: "x", value: &req.X},
		{name: "y", value: &req.Y},
		{name: "z", value: &req.Z},
		{name: "ra", value: &req.RA},
		{name: "dec", value: &req.Dec},
	}

	for _, p := range params {
		if *p.value, err = parseFloatParam(q, p.name); err != nil {
			return req, err
		}
	}
	return req, nil
}

func parseFloatParam(q url.Values, name string) (*float64, error) {
	if !q.Has(name) {
		return nil, nil
	}

	v, err := strconv.ParseFloat(q.Get(name), 64)
	if err != nil {
		return nil, errors.New("invalid query parameter").
			WithType(models.ErrTypeBadRequest).
			WithTag("name", name).
			WithTag("value", q.Get(name)).
			Wrap(err)
	}
	return &v, nil
}

func parseDepth(q url.Values) (int, error) {
	if !q.Has("depth") {
		return 0, errors.New("missing depth query parameter").
			WithType(models.ErrTypeBadRequest)
	}

	depth, err := strconv.Atoi(q.Get("depth"))
	if err != nil {
		return 0, errors.New("invalid depth query parameter").
			WithType(models.ErrTypeBadRequest).
			WithTag("depth", q.Get("depth")).
			Wrap(err)
	}
	return depth, nil
}
