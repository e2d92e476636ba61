package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	SignaturesTotal     *prometheus.CounterVec
	BroadcastTotal      *prometheus.CounterVec
	FeeAmountTotal      *prometheus.CounterVec
	TxConfirmDuration   prometheus.Histogram
	KeyDerivationsTotal prometheus.Counter
}

// Business 全局业务指标。未调用 Init 时也可安全使用，只是不会被采集。
var Business = newBusinessMetrics()

func newBusinessMetrics() *BusinessMetrics {
	return &BusinessMetrics{
		SignaturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_signatures_total",
			Help: "The total number of produced signatures",
		}, []string{"mode"}),
		BroadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_broadcast_total",
			Help: "Broadcast results grouped by chain and outcome",
		}, []string{"chain", "result"}),
		FeeAmountTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_fee_amount_total",
			Help: "The total fee attached to broadcast transactions",
		}, []string{"denom"}),
		TxConfirmDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_tx_confirm_duration_seconds",
			Help:    "Time from broadcast to inclusion in a block",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
		}),
		KeyDerivationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_key_derivations_total",
			Help: "The total number of HD key derivations",
		}),
	}
}

// InitBusinessMetrics 注册业务指标
func InitBusinessMetrics() {
	prometheus.MustRegister(
		Business.SignaturesTotal,
		Business.BroadcastTotal,
		Business.FeeAmountTotal,
		Business.TxConfirmDuration,
		Business.KeyDerivationsTotal,
	)
}
