package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/htm/featureflag"
	"github.com/aukilabs/htm/htm"
	htmhttp "github.com/aukilabs/htm/http"
	"github.com/aukilabs/htm/models"
	"github.com/aukilabs/htm/smoketest"
	htmwebsocket "github.com/aukilabs/htm/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The htm version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "htm_info",
		Help:        "HTM server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"HTM_ADDR"                  help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"HTM_ADMIN_ADDR"            help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"HTM_PUBLIC_ENDPOINT"       help:"The public endpoint where this server is reachable."`
	SphereDepth        int           `cli:""        env:"HTM_SPHERE_DEPTH"          help:"The depth of the sphere index (0-25)."`
	PlaneDepth         int           `cli:""        env:"HTM_PLANE_DEPTH"           help:"The depth of the planar index (0-25)."`
	MaxTrixelListing   int           `cli:""        env:"HTM_MAX_TRIXEL_LISTING"    help:"The max number of trixels returned by a listing."`
	LogLevel           string        `cli:""        env:"HTM_LOG_LEVEL"             help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"HTM_LOG_INDENT"            help:"Indent logs."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"HTM_CLIENT_IDLE_TIMEOUT"   help:"Time until an idle stream client will be disconnected"`
	LogSummaryInterval time.Duration `cli:",hidden" env:"HTM_LOG_SUMMARY_INTERVAL"  help:"The duration between each log summary by connection."`
	Events             eventsConfig  `cli:",hidden" env:"-"                         help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"HTM_FEATURE_FLAGS"         help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                         help:"Show version."`
	Help               bool          `cli:""        env:"-"                         help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"HTM_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"HTM_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"HTM_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"HTM_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		SphereDepth:        20,
		PlaneDepth:         20,
		MaxTrixelListing:   htmhttp.DefaultMaxTrixelListing,
		LogLevel:           logs.InfoLevel.String(),
		ClientIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a Hierarchical Triangular Mesh index server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "htm",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	flags := featureflag.New(conf.FeatureFlags)

	start := time.Now()
	store, err := models.NewIndexStore(conf.SphereDepth, conf.PlaneDepth)
	if err != nil {
		logs.Fatal(errors.New("building indexes failed").Wrap(err))
	}
	logs.WithTag("sphere_depth", store.Sphere.MaxDepth()).
		WithTag("plane_depth", store.Plane.MaxDepth()).
		WithTag("sphere_leaves", store.Sphere.LeafCount()).
		WithTag("plane_leaves", store.Plane.LeafCount()).
		WithTag("duration", time.Since(start)).
		Info("indexes built")

	readinessCheck := func() bool {
		return store != nil
	}

	var service http.ServeMux

	api := htmhttp.API{
		Store:            store,
		Flags:            flags,
		MaxTrixelListing: conf.MaxTrixelListing,
	}
	api.Register(&service)

	service.Handle("OPTIONS /", http.HandlerFunc(htmhttp.HandlePreflight))
	service.Handle("GET /health", htmhttp.HandleWithCORS(http.HandlerFunc(htmhttp.HandleHealthCheck)))
	service.Handle("GET /ready", htmhttp.HandleWithCORS(htmhttp.HandleReadyCheck(readinessCheck)))
	service.Handle("GET /version", htmhttp.HandleWithCORS(htmhttp.HandleVersion(version)))

	service.Handle("POST /smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:   conf.PublicEndpoint,
		UserAgent:  fmt.Sprintf("HTM %s", version),
		Transport:  transport,
		SendResult: smoketest.LogResult,
	}))

	flags.IfNotSet(featureflag.FlagDisableStreaming, func() {
		service.Handle("GET /v1/stream", websocket.Server{
			Handler: func(conn *websocket.Conn) {
				defer conn.Close()

				var h htmwebsocket.Handler = &htmwebsocket.StreamHandler{
					Store:             store,
					Flags:             flags,
					ClientIdleTimeout: conf.ClientIdleTimeout,
				}
				h = htmwebsocket.HandlerWithLogs(h, conf.LogSummaryInterval)
				h = htmwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
				defer h.Close()

				htmwebsocket.Handle(ctx, conn, h)
			},
		})
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", htmhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", htmhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting htm server")

	htmhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			htmhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.SphereDepth < 0 || conf.SphereDepth > htm.MaxDepth {
		return errors.Newf("sphere depth must be between 0 and %d", htm.MaxDepth).
			WithTag("sphere_depth", conf.SphereDepth)
	}

	if conf.PlaneDepth < 0 || conf.PlaneDepth > htm.MaxDepth {
		return errors.Newf("plane depth must be between 0 and %d", htm.MaxDepth).
			WithTag("plane_depth", conf.PlaneDepth)
	}

	if conf.MaxTrixelListing < 0 {
		return errors.New("max trixel listing must not be negative").
			WithTag("max_trixel_listing", conf.MaxTrixelListing)
	}

	if conf.ClientIdleTimeout <= 0 {
		return errors.New("client idle timeout must be positive").
			WithTag("client_idle_timeout", conf.ClientIdleTimeout)
	}

	return nil
}
