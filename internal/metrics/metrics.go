// Package metrics exposes Prometheus metrics for the normalizer.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type BuildInfo struct {
	Version   string
	Revision  string
	BuildDate string
}

type Config struct {
	// node exporter textfile path; empty disables export
	TextfilePath string
	Build        BuildInfo
}

type Provider struct {
	cfg       Config
	reg       *prometheus.Registry
	buildInfo *prometheus.GaugeVec
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "build_date"},
	)
	reg.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.BuildDate).Set(1)

	return &Provider{cfg: cfg, reg: reg, buildInfo: build}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// WriteTextfile writes all gathered metrics to the configured textfile.
// A no-op when no path is configured.
func (p *Provider) WriteTextfile() error {
	if p.cfg.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(p.cfg.TextfilePath, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Normalizer holds the conversion counters. A nil *Normalizer is valid and
// records nothing.
type Normalizer struct {
	features  prometheus.Counter
	dropped   prometheus.Counter
	errors    *prometheus.CounterVec
	envelopes *prometheus.CounterVec
}

func NewNormalizer(reg prometheus.Registerer) *Normalizer {
	n := &Normalizer{
		features: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geonorm_features_total",
			Help: "Features emitted from search hits.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geonorm_hits_dropped_total",
			Help: "Hits dropped because the geo field was absent.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geonorm_errors_total",
			Help: "Conversion failures by kind.",
		}, []string{"kind"}),
		envelopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geonorm_envelopes_total",
			Help: "Envelopes produced from map extents, labelled by whether the extent was split.",
		}, []string{"split"}),
	}
	if reg != nil {
		reg.MustRegister(n.features, n.dropped, n.errors, n.envelopes)
	}
	return n
}

func (n *Normalizer) AddFeatures(c int) {
	if n == nil || c <= 0 {
		return
	}
	n.features.Add(float64(c))
}

func (n *Normalizer) AddDropped(c int) {
	if n == nil || c <= 0 {
		return
	}
	n.dropped.Add(float64(c))
}

func (n *Normalizer) IncError(kind string) {
	if n == nil {
		return
	}
	if kind == "" {
		kind = "other"
	}
	n.errors.WithLabelValues(kind).Inc()
}

// ObserveEnvelopes records the result of splitting one extent into count
// envelopes.
func (n *Normalizer) ObserveEnvelopes(count int) {
	if n == nil || count <= 0 {
		return
	}
	n.envelopes.WithLabelValues(strconv.FormatBool(count > 1)).Add(float64(count))
}
