package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tape_events_total", Help: "Tape events processed by type",
	}, []string{"type"})
	UnknownOrdersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unknown_orders_total", Help: "Events referencing an id not in the registry",
	})
	UnknownLevelsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unknown_levels_total", Help: "Defensive level lookups that found no level",
	})
	ClampedReductionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clamped_reductions_total", Help: "Cancel/execute quantities clamped to remaining shares",
	})
	VisibleExecutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "visible_executions_total", Help: "Visible execution prints recorded",
	})
	HiddenExecutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hidden_executions_total", Help: "Hidden execution prints recorded",
	})
	BestBid = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "best_bid_ticks", Help: "Best bid price in ticks, 0 when absent",
	})
	BestOffer = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "best_offer_ticks", Help: "Best offer price in ticks, 0 when absent",
	})
	LiveOrders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "live_orders", Help: "Resting orders currently registered",
	})
	ApplyLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "event_apply_latency_us", Help: "Event apply latency in microseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 16),
	})
	BroadcastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcasts_total", Help: "Outbox broadcast outcomes",
	}, []string{"outcome"})
)

// Init registers all collectors into a fresh registry along with the
// standard Go and process collectors.
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		EventsTotal, UnknownOrdersTotal, UnknownLevelsTotal, ClampedReductionsTotal,
		VisibleExecutionsTotal, HiddenExecutionsTotal,
		BestBid, BestOffer, LiveOrders, ApplyLatency, BroadcastsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
