package pow

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus 指标：观测验证池占用、重播种频率与哈希吞吐
var (
	powPoolCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pow_pool_capacity",
		Help: "Fixed capacity of the verifier context pool.",
	})
	powPoolAvailable = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pow_pool_available",
		Help: "Number of verifier contexts currently available for checkout.",
	})
	powPoolReseedsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pow_pool_reseeds_total",
		Help: "Total number of verifier context reseeds (epoch key changes).",
	})
	powVerifyHashesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pow_verify_hashes_total",
		Help: "Total number of memory-hard hashes computed for verification.",
	})
	powMinerHashesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pow_miner_hashes_total",
		Help: "Total number of memory-hard hashes computed while mining.",
	})
)

func init() {
	prometheus.MustRegister(
		powPoolCapacity,
		powPoolAvailable,
		powPoolReseedsTotal,
		powVerifyHashesTotal,
		powMinerHashesTotal,
	)
}
