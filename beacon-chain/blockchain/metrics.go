package blockchain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	beaconHeadSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_head_slot",
		Help: "Slot of the head block of the beacon chain.",
	})
	chainReorgCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_chain_reorg_total",
		Help: "Count of the number of chain reorganizations.",
	})
	processedBlockCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_processed_blocks_total",
		Help: "Count of blocks the chain service accepted into fork choice.",
	})
	processedAttCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_processed_attestations_total",
		Help: "Count of attestations the chain service accepted into fork choice.",
	})
)
