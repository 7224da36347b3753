package smoketest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/htm/htm"
	htmhttp "github.com/aukilabs/htm/http"
	"github.com/golang/geo/r3"
	"github.com/segmentio/encoding/json"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	DefaultDepth   = 3
	MaxDepth       = 6
	DefaultTimeout = time.Second * 30
)

type Options struct {
	// The endpoint of the server running the smoke tests.
	Endpoint   string
	UserAgent  string
	Transport  http.RoundTripper
	SendResult func(context.Context, Results) error
}

// Request is the body of a smoke test request.
type Request struct {
	// The endpoint of the server to test.
	Endpoint string        `json:"endpoint"`
	Depth    int           `json:"depth"`
	Timeout  time.Duration `json:"timeout"`
}

// Results reports a smoke test run.
type Results struct {
	FromEndpoint    string  `json:"from_endpoint"`
	ToEndpoint      string  `json:"to_endpoint"`
	Status          string  `json:"status"`
	Checked         int     `json:"checked"`
	Mismatches      int     `json:"mismatches"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Error           string  `json:"error,omitempty"`
}

type RunOptions struct {
	FromEndpoint string
	ToEndpoint   string
	UserAgent    string

	// The depth of the trixels whose centroids are located. It must not be
	// above the depth of the tested sphere index.
	Depth     int
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Run locates the centroid of every sphere trixel at opts.Depth with the
// tested server, and checks that each result descends from the trixel the
// centroid was taken from.
func Run(ctx context.Context, opts RunOptions) (Results, error) {
	res := Results{
		FromEndpoint: opts.FromEndpoint,
		ToEndpoint:   opts.ToEndpoint,
		Status:       StatusFailed,
	}

	if opts.Depth == 0 {
		opts.Depth = DefaultDepth
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	fail := func(err error) (Results, error) {
		res.Error = err.Error()
		return res, errors.New("smoke test failed").
			WithTag("from_endpoint", opts.FromEndpoint).
			WithTag("to_endpoint", opts.ToEndpoint).
			Wrap(err)
	}

	if opts.Depth < 1 || opts.Depth > MaxDepth {
		return fail(errors.Newf("smoke test depth must be between 1 and %d", MaxDepth).
			WithTag("depth", opts.Depth))
	}

	locateURL, err := url.JoinPath(opts.ToEndpoint, "/v1/sphere/locate")
	if err != nil {
		return fail(errors.New("invalid endpoint").Wrap(err))
	}

	sphere, err := htm.BuildSphere(opts.Depth)
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client := http.Client{Transport: opts.Transport}

	var elapsed time.Duration
	sphere.Walk(func(t htm.Trixel[r3.Vector]) bool {
		if err != nil || t.Depth < opts.Depth {
			return err == nil
		}

		var index uint64
		var depth int
		start := time.Now()
		index, depth, err = locate(ctx, &client, locateURL, opts.UserAgent, centroid(t.Points))
		if err != nil {
			return false
		}
		elapsed += time.Since(start)
		res.Checked++

		if depth < t.Depth || index>>(2*(depth-t.Depth)) != t.Index {
			res.Mismatches++
		}
		return false
	})
	if err != nil {
		return fail(err)
	}

	if res.Checked != 0 {
		res.LatencyMilliSec = float64(elapsed.Microseconds()) / 1000 / float64(res.Checked)
	}
	if res.Mismatches != 0 {
		return fail(errors.Newf("%d of %d located directions are outside of their trixel", res.Mismatches, res.Checked))
	}

	res.Status = StatusSuccess
	return res, nil
}

func centroid(t htm.Triangle[r3.Vector]) r3.Vector {
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3)
}

func locate(ctx context.Context, client *http.Client, locateURL, userAgent string, direction r3.Vector) (uint64, int, error) {
	q := url.Values{}
	q.Set("x", strconv.FormatFloat(direction.X, 'g', -1, 64))
	q.Set("y", strconv.FormatFloat(direction.Y, 'g', -1, 64))
	q.Set("z", strconv.FormatFloat(direction.Z, 'g', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locateURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, errors.New("creating locate request failed").Wrap(err)
	}
	req.Header.Set("Accept", htmhttp.ContentTypeProtobuf)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	res, err := client.Do(req)
	if err != nil {
		return 0, 0, errors.New("locate request failed").Wrap(err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, 0, errors.New("reading locate response failed").Wrap(err)
	}
	if res.StatusCode != http.StatusOK {
		return 0, 0, errors.New("unexpected locate response status").
			WithTag("status", res.StatusCode).
			WithTag("body", string(b))
	}

	record, err := htmhttp.ConsumeTrixelRecord(b)
	if err != nil {
		return 0, 0, err
	}
	return record.Index, record.Depth, nil
}

type testCtxKey string

var testCtxKeyValue testCtxKey = "test-context"

type testContext struct {
	context.Context
	Cancel func()
}

// HandleSmokeTest runs a smoke test against the endpoint of the posted
// Request. The test runs in the background and its results are passed to
// opts.SendResult.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			logs.Warn(errors.New("reading body failed").Wrap(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil || req.Endpoint == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go func() {
			defer func() {
				// if context is of testContext
				// cancel context on exit to signal function exited
				// this is used for testing
				if tctx := ctx.Value(testCtxKeyValue); tctx != nil {
					testCtx := tctx.(testContext)
					if testCtx.Cancel != nil {
						testCtx.Cancel()
					}
				}
			}()

			res, err := Run(ctx, RunOptions{
				FromEndpoint: opts.Endpoint,
				ToEndpoint:   req.Endpoint,
				UserAgent:    opts.UserAgent,
				Depth:        req.Depth,
				Timeout:      req.Timeout,
				Transport:    opts.Transport,
			})
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

// LogResult is a SendResult function that logs the results.
func LogResult(ctx context.Context, res Results) error {
	logs.WithTag("from_endpoint", res.FromEndpoint).
		WithTag("to_endpoint", res.ToEndpoint).
		WithTag("status", res.Status).
		WithTag("checked", res.Checked).
		WithTag("mismatches", res.Mismatches).
		WithTag("latency_ms", res.LatencyMilliSec).
		Info(fmt.Sprintf("smoke test %s", res.Status))
	return nil
}
