package models

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	variantLabel = "variant"
	errTypeLabel = "error_type"
)

var (
	indexDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "htm_index_depth",
		Help: "The max depth of the loaded indexes.",
	}, []string{variantLabel})

	indexBuildLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "htm_index_build_seconds",
		Help: "The time it took to build the loaded indexes.",
	}, []string{variantLabel})

	locateCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "htm_locate_total",
		Help: "The number of locate queries.",
	}, []string{variantLabel})

	locateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "htm_locate_errors",
		Help: "The errors that occured while locating a point.",
	}, []string{
		variantLabel,
		errTypeLabel,
	})

	locateLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "htm_locate_latency",
		Help:    "The time to locate a point.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{variantLabel})
)

func instrumentBuild(variant string, depth int, build func() error) error {
	start := time.Now()
	if err := build(); err != nil {
		return err
	}

	indexBuildLatency.
		With(prometheus.Labels{variantLabel: variant}).
		Set(time.Since(start).Seconds())
	indexDepth.
		With(prometheus.Labels{variantLabel: variant}).
		Set(float64(depth))
	return nil
}

func instrumentLocate(variant string, locate func() error) error {
	start := time.Now()
	err := locate()

	locateLatency.
		With(prometheus.Labels{variantLabel: variant}).
		Observe(time.Since(start).Seconds())
	locateCount.
		With(prometheus.Labels{variantLabel: variant}).
		Inc()

	if err != nil {
		locateErrors.
			With(prometheus.Labels{
				variantLabel: variant,
				errTypeLabel: errors.Type(err),
			}).
			Inc()
	}
	return err
}
