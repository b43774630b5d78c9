package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Veraticus/cashflow/internal/model"
)

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cashflow_http_requests_total",
	Help: "HTTP requests by method, route and status code.",
}, []string{"method", "route", "status"})

var httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "cashflow_http_request_duration_seconds",
	Help:    "HTTP request latency by route.",
	Buckets: prometheus.DefBuckets,
}, []string{"route"})

var transactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cashflow_transactions_recorded_total",
	Help: "Transactions recorded through the API by direction.",
}, []string{"direction"})

var feesEarned = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cashflow_fees_earned_total",
	Help: "Fees earned on transactions recorded through the API, in pesos.",
}, []string{"direction"})

var balanceGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "cashflow_balance",
	Help: "Current balance of each pool, in pesos.",
}, []string{"pool"})

func observeRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func observeTransaction(txn model.Transaction) {
	direction := string(txn.Direction)
	transactionsRecorded.WithLabelValues(direction).Inc()
	feesEarned.WithLabelValues(direction).Add(txn.Fee.InexactFloat64())
}

func observeBalances(b model.BalancePair) {
	balanceGauge.WithLabelValues("wallet").Set(b.Wallet.InexactFloat64())
	balanceGauge.WithLabelValues("cash").Set(b.Cash.InexactFloat64())
}
