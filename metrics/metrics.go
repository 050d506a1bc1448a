// Package metrics exposes live world counts as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/neuralang/telemetry"
)

// Recorder holds the per-world gauges. All metrics carry a "world" label.
type Recorder struct {
	reg *prometheus.Registry

	beings      *prometheus.GaugeVec
	foods       *prometheus.GaugeVec
	obstructs   *prometheus.GaugeVec
	speechlets  *prometheus.GaugeVec
	generation  *prometheus.GaugeVec
	foodCeiling *prometheus.GaugeVec
	ticks       *prometheus.CounterVec
	genLength   *prometheus.HistogramVec
	extinctions *prometheus.CounterVec
}

// NewRecorder creates a recorder registered on a fresh registry.
func NewRecorder(namespace string) *Recorder {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, []string{"world"})
	}
	r := &Recorder{
		reg:         prometheus.NewRegistry(),
		beings:      gauge("beings", "Living beings."),
		foods:       gauge("foods", "Foods on the map, plant and flesh."),
		obstructs:   gauge("obstructs", "Obstructs on the map."),
		speechlets:  gauge("speechlets", "Live speechlets."),
		generation:  gauge("generation", "Reworlds so far."),
		foodCeiling: gauge("food_ceiling", "Current plant food ceiling."),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulated ticks.",
		}, []string{"world"}),
		genLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_length_ticks",
			Help:      "Ticks between reworlds.",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 10),
		}, []string{"world"}),
		extinctions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extinctions_total",
			Help:      "Reworlds with no survivors.",
		}, []string{"world"}),
	}
	r.reg.MustRegister(r.beings, r.foods, r.obstructs, r.speechlets, r.generation,
		r.foodCeiling, r.ticks, r.genLength, r.extinctions)
	return r
}

// Observe sets the count gauges of one world and adds the ticks run since the
// previous call.
func (r *Recorder) Observe(world int, c telemetry.Counts, ticks int) {
	if r == nil {
		return
	}
	label := strconv.Itoa(world)
	r.beings.WithLabelValues(label).Set(float64(c.Beings))
	r.foods.WithLabelValues(label).Set(float64(c.Foods))
	r.obstructs.WithLabelValues(label).Set(float64(c.Obstructs))
	r.speechlets.WithLabelValues(label).Set(float64(c.Speechlets))
	r.generation.WithLabelValues(label).Set(float64(c.Generation))
	r.foodCeiling.WithLabelValues(label).Set(float64(c.FoodCeiling))
	if ticks > 0 {
		r.ticks.WithLabelValues(label).Add(float64(ticks))
	}
}

// ObserveGeneration records a finished generation.
func (r *Recorder) ObserveGeneration(world int, g telemetry.GenerationStats) {
	if r == nil {
		return
	}
	label := strconv.Itoa(world)
	r.genLength.WithLabelValues(label).Observe(float64(g.Length))
	if g.Extinction {
		r.extinctions.WithLabelValues(label).Inc()
	}
}

// Handler returns the /metrics handler for this recorder.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve serves /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
