package nquads

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadline_nquads_lines_total",
		Help: "Number of input lines seen by ParseString, by result (parsed, skipped, failed).",
	}, []string{"result"})

	mQuadsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_nquads_quads_loaded_total",
		Help: "Number of decoded quads handed to a store by LoadBuf.",
	})
)

func observeLines(parsed, skipped, failed int) {
	mLines.WithLabelValues("parsed").Add(float64(parsed))
	mLines.WithLabelValues("skipped").Add(float64(skipped))
	mLines.WithLabelValues("failed").Add(float64(failed))
}
