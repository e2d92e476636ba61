package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	// RPCRequestsTotal 记录节点 gRPC 请求总量
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cosmos_rpc_requests_total",
			Help: "Total number of gRPC requests sent to the node.",
		},
		[]string{"method", "code"},
	)

	// RPCRequestDuration 记录 gRPC 请求耗时 (Histogram)
	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cosmos_rpc_request_duration_seconds",
			Help:    "gRPC request latency distributions.",
			Buckets: []float64{0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0}, // 关键耗时桶
		},
		[]string{"method"},
	)

	initOnce sync.Once
)

// Init 注册监控指标到默认 Registry，可重复调用
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RPCRequestsTotal)
		prometheus.MustRegister(RPCRequestDuration)
		// 初始化业务指标
		InitBusinessMetrics()
	})
}

// UnaryClientInterceptor 记录每次 gRPC 调用的结果和耗时
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()

		// 发起请求
		err := invoker(ctx, method, req, reply, cc, opts...)

		duration := time.Since(start).Seconds()
		code := status.Code(err).String()

		// 记录指标
		RPCRequestsTotal.WithLabelValues(method, code).Inc()
		RPCRequestDuration.WithLabelValues(method).Observe(duration)
		return err
	}
}

// WriteTextfile 把默认 Registry 的指标写入文件，供 node_exporter 的 textfile collector 采集。
// CLI 进程很短，没有常驻的 /metrics 端点。
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
