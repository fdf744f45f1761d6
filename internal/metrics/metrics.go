// Package metrics exposes per-protocol frame counters as Prometheus
// collectors. Grounded on gnssgo's app/plot/plot.go OutMetrics, which
// builds a prometheus.GaugeVec per solution and labels it by receiver
// name; this package does the analogous thing for accepted/bad-CRC/framing
// counts, one CounterVec labeled by protocol name instead of one gauge per
// sample.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fxbgnss/semprelay/framer"
)

// Collectors holds the counters a caller should register with a
// prometheus.Registerer once, then update by calling Sync with a session's
// running Stats.
type Collectors struct {
	FramesAccepted *prometheus.CounterVec
	BadCRC         *prometheus.CounterVec
	FramingErrors  *prometheus.CounterVec
	BytesSeen      *prometheus.CounterVec
}

// New builds a fresh, unregistered set of collectors.
func New() *Collectors {
	labels := []string{"protocol"}
	return &Collectors{
		FramesAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semprelay_frames_accepted_total",
			Help: "Frames accepted per protocol.",
		}, labels),
		BadCRC: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semprelay_frames_bad_crc_total",
			Help: "Frames discarded for a failed integrity check, per protocol.",
		}, labels),
		FramingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semprelay_framing_errors_total",
			Help: "Framing retreats per protocol.",
		}, labels),
		BytesSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semprelay_bytes_seen_total",
			Help: "Bytes consumed while a protocol was active.",
		}, labels),
	}
}

// Register adds every collector to reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{c.FramesAccepted, c.BadCRC, c.FramingErrors, c.BytesSeen} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Sync copies a session's current per-protocol Stats into the counters,
// keyed by each Kind's canonical diagnostic name. Prometheus counters only
// go up, so this adds the delta since the last sync rather than setting an
// absolute value. previous must be indexed the same way a prior Sync call
// returned it.
func (c *Collectors) Sync(sess *framer.Session, previous map[framer.Kind]framer.Stats) map[framer.Kind]framer.Stats {
	next := make(map[framer.Kind]framer.Stats, len(framer.AllKinds()))
	for _, kind := range framer.AllKinds() {
		cur := sess.Stats(kind)
		next[kind] = cur
		prev := previous[kind]
		name := kind.String()
		c.FramesAccepted.WithLabelValues(name).Add(float64(cur.MessagesAccepted - prev.MessagesAccepted))
		c.BadCRC.WithLabelValues(name).Add(float64(cur.BadCRC - prev.BadCRC))
		c.FramingErrors.WithLabelValues(name).Add(float64(cur.FramingErrors - prev.FramingErrors))
		c.BytesSeen.WithLabelValues(name).Add(float64(cur.BytesSeen - prev.BytesSeen))
	}
	return next
}
