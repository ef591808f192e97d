// Package metrics exposes Prometheus counters for the client protocol.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transaction metrics
	TxSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magicplace_tx_submitted_total",
		Help: "The total number of transactions submitted.",
	}, []string{"ledger"})
	TxConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magicplace_tx_confirmed_total",
		Help: "The total number of transactions confirmed.",
	}, []string{"ledger"})
	TxReverted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magicplace_tx_reverted_total",
		Help: "The total number of transactions that reverted on-chain.",
	}, []string{"ledger"})

	// Delegation metrics
	DelegateRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicplace_delegate_retries_total",
		Help: "The total number of retried delegate submissions.",
	})
	ShardsDelegated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicplace_shards_delegated_total",
		Help: "The total number of shards successfully delegated to the fast layer.",
	})

	// Painting metrics
	PixelsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicplace_pixels_placed_total",
		Help: "The total number of pixels placed.",
	})
	CooldownDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicplace_cooldown_denials_total",
		Help: "The total number of placements denied by the local cooldown estimate.",
	})
)
