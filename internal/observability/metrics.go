// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	FramesReceived prometheus.Counter
	FramesDecoded  prometheus.Counter
	FramesDropped  *prometheus.CounterVec
	FeedReconnects prometheus.Counter

	// Game metrics
	EventsEmitted *prometheus.CounterVec
	RoundsStarted prometheus.Counter
	RoundsEnded   prometheus.Counter
	CandlesClosed prometheus.Counter
	StaleTicks    prometheus.Counter
	CurrentTick   prometheus.Gauge
	CurrentPrice  prometheus.Gauge

	// Trading metrics
	TradesExecuted  *prometheus.CounterVec
	TradesRejected  *prometheus.CounterVec
	HandlerErrors   *prometheus.CounterVec
	HousePosition   prometheus.Gauge
	OpenPositions   prometheus.Gauge
	DispatchLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastFrameTimestamp prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "rugs_bot"
	}

	return &Metrics{
		// Feed metrics
		FramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_received_total",
			Help:      "Total number of raw frames received from the feed",
		}),
		FramesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_decoded_total",
			Help:      "Total number of frames decoded into domain messages",
		}),
		FramesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_dropped_total",
			Help:      "Total number of frames dropped by reason",
		}, []string{"reason"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}),

		// Game metrics
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "events_emitted_total",
			Help:      "Total number of game events emitted by type",
		}, []string{"type"}),
		RoundsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "rounds_started_total",
			Help:      "Total number of rounds started",
		}),
		RoundsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "rounds_ended_total",
			Help:      "Total number of rounds ended",
		}),
		CandlesClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "candles_closed_total",
			Help:      "Total number of candles closed",
		}),
		StaleTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "stale_ticks_total",
			Help:      "Total number of updates ignored for stale tick counters",
		}),
		CurrentTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "current_tick",
			Help:      "Tick counter of the current round",
		}),
		CurrentPrice: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "current_price",
			Help:      "Latest observed price multiplier",
		}),

		// Trading metrics
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_executed_total",
			Help:      "Total number of trades executed by type",
		}, []string{"type"}),
		TradesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_rejected_total",
			Help:      "Total number of trades rejected by reason",
		}, []string{"reason"}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "handler_errors_total",
			Help:      "Total number of strategy handler errors by strategy",
		}, []string{"strategy"}),
		HousePosition: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "house_position_sol",
			Help:      "Current house position in SOL",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Number of open player positions",
		}),
		DispatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "dispatch_latency_seconds",
			Help:      "Event dispatch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastFrameTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_frame_timestamp",
			Help:      "Unix timestamp of the last frame received",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFrameReceived increments the frames received counter and bumps
// the last-frame health gauge.
func RecordFrameReceived(unixTS float64) {
	DefaultMetrics.FramesReceived.Inc()
	DefaultMetrics.LastFrameTimestamp.Set(unixTS)
}

// RecordFrameDecoded increments the frames decoded counter.
func RecordFrameDecoded() {
	DefaultMetrics.FramesDecoded.Inc()
}

// RecordFrameDropped records a dropped frame by reason.
func RecordFrameDropped(reason string) {
	DefaultMetrics.FramesDropped.WithLabelValues(reason).Inc()
}

// RecordEvent records an emitted game event by type.
func RecordEvent(eventType string) {
	DefaultMetrics.EventsEmitted.WithLabelValues(eventType).Inc()
}

// RecordTradeExecuted records an executed trade by type.
func RecordTradeExecuted(tradeType string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(tradeType).Inc()
}

// RecordTradeRejected records a rejected trade by reason.
func RecordTradeRejected(reason string) {
	DefaultMetrics.TradesRejected.WithLabelValues(reason).Inc()
}

// RecordHandlerError records a strategy handler error.
func RecordHandlerError(strategyID string) {
	DefaultMetrics.HandlerErrors.WithLabelValues(strategyID).Inc()
}

// UpdateHousePosition updates the house position gauge.
func UpdateHousePosition(sol float64) {
	DefaultMetrics.HousePosition.Set(sol)
}

// UpdateMarketState updates the tick and price gauges.
func UpdateMarketState(tick int, price float64) {
	DefaultMetrics.CurrentTick.Set(float64(tick))
	DefaultMetrics.CurrentPrice.Set(price)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
