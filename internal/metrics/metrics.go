// Package metrics exposes the trading engine's Prometheus counters and
// gauges and serves them over HTTP for scraping.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Registry bundles every metric the trading engine publishes.
type Registry struct {
	reg *prometheus.Registry

	OrdersSubmitted  *prometheus.CounterVec
	OrdersRejected   *prometheus.CounterVec
	Fills            *prometheus.CounterVec
	SlippagePaid     prometheus.Histogram
	RiskBreaches     *prometheus.CounterVec
	HaltState        prometheus.Gauge
	RateLimitRejects *prometheus.CounterVec
	PoolFreeFraction *prometheus.GaugeVec
}

// NewRegistry constructs and registers every metric on a fresh
// Prometheus registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_orders_submitted_total",
			Help: "Orders submitted to an exchange, by symbol and side.",
		}, []string{"symbol", "side"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_orders_rejected_total",
			Help: "Orders rejected pre-trade, by reason.",
		}, []string{"reason"}),
		Fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_fills_total",
			Help: "Fills received, by symbol and side.",
		}, []string{"symbol", "side"}),
		SlippagePaid: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradsys_slippage_paid_ticks",
			Help:    "Per-fill slippage paid, in price ticks.",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
		RiskBreaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_risk_breaches_total",
			Help: "Post-fill risk breaches, by kind (daily_loss, drawdown).",
		}, []string{"kind"}),
		HaltState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradsys_halt_state",
			Help: "Current halt controller state (0=running,1=halting,2=halted,3=error).",
		}),
		RateLimitRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_rate_limit_rejects_total",
			Help: "Orders rejected by the rate limiter, by reason.",
		}, []string{"reason"}),
		PoolFreeFraction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradsys_pool_free_fraction",
			Help: "Fraction of an order-book pool's capacity still free, by symbol and pool (order, level).",
		}, []string{"symbol", "pool"}),
	}

	reg.MustRegister(
		r.OrdersSubmitted,
		r.OrdersRejected,
		r.Fills,
		r.SlippagePaid,
		r.RiskBreaches,
		r.HaltState,
		r.RateLimitRejects,
		r.PoolFreeFraction,
	)
	return r
}

// Serve starts an HTTP server exposing the registry at /metrics and
// stops it when ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
