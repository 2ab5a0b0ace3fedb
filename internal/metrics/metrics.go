package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Worker stage counters and histograms, partitioned by chain + chain_type.

var (
	// Scheduler
	WorkerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "worker",
		Name:      "runs_total",
		Help:      "Total scheduled worker runs by outcome",
	}, []string{"outcome"})

	WorkerRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "worker",
		Name:      "run_duration_seconds",
		Help:      "Duration of a full plan+execute worker run",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	WorkerWalletsPlanned = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "worker",
		Name:      "wallets_planned",
		Help:      "Wallets enumerated by the latest plan phase",
	})

	// Per-wallet pipeline
	WalletRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "wallet",
		Name:      "runs_total",
		Help:      "Total wallet pipeline runs by terminal state",
	}, []string{"chain", "chain_type", "state"})

	WalletStageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "wallet",
		Name:      "stage_failures_total",
		Help:      "Wallet pipeline failures by stage and error class",
	}, []string{"chain", "chain_type", "stage", "class"})

	WalletRunLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "wallet",
		Name:      "run_duration_seconds",
		Help:      "Wallet pipeline run duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"chain", "chain_type"})

	// Source adapters
	SourceEventsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "source",
		Name:      "events_fetched_total",
		Help:      "Raw events returned by chain indexers",
	}, []string{"chain", "chain_type", "kind"})

	SourceSaturatedWindows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "source",
		Name:      "saturated_windows_total",
		Help:      "Fetch windows that were full and could not advance the watermark",
	}, []string{"chain", "chain_type"})

	// Ledger writer
	LedgerEntriesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "writer",
		Name:      "entries_written_total",
		Help:      "Ledger entries newly inserted",
	}, []string{"chain", "chain_type", "direction"})

	LedgerDuplicatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "writer",
		Name:      "duplicates_skipped_total",
		Help:      "Canonical entries skipped because their hash was already stored",
	}, []string{"chain", "chain_type"})

	// Linker
	LinkerEntriesLinked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "linker",
		Name:      "entries_linked_total",
		Help:      "Ledger entries linked to a transaction queue row",
	}, []string{"chain", "chain_type"})

	LinkerUnlinkedDebits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "linker",
		Name:      "unlinked_debits_total",
		Help:      "Cost entries with no matching transaction queue row",
	}, []string{"chain", "chain_type"})

	// Depletion
	DepositsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "depletion",
		Name:      "deposits_opened_total",
		Help:      "Deposit records opened from income entries",
	}, []string{"chain", "chain_type"})

	DepositsDrained = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "depletion",
		Name:      "deposits_drained_total",
		Help:      "Deposit records whose current amount reached zero",
	}, []string{"chain", "chain_type"})

	DepletionShortfalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "depletion",
		Name:      "shortfalls_total",
		Help:      "Spends that exceeded all remaining deposit balance",
	}, []string{"chain", "chain_type"})

	// Balance monitor
	BalanceChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "monitor",
		Name:      "balance_checks_total",
		Help:      "Live balance checks by outcome",
	}, []string{"chain", "chain_type", "outcome"})

	// Price feed
	PriceLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "price",
		Name:      "lookups_total",
		Help:      "Fiat price lookups by result",
	}, []string{"token", "result"})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total RPC and indexer calls by method and status",
	}, []string{"chain", "method", "status"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total times RPC calls waited for rate limiter",
	}, []string{"chain"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts sent",
	}, []string{"channel", "severity"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts skipped due to cooldown",
	}, []string{"severity"})

	// DB pool
	DBPoolOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "postgres",
		Name:      "db_pool_open",
		Help:      "Current number of open PostgreSQL connections in the pool",
	})

	DBPoolInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "postgres",
		Name:      "db_pool_in_use",
		Help:      "Current number of in-use PostgreSQL connections in the pool",
	})

	DBPoolIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "postgres",
		Name:      "db_pool_idle",
		Help:      "Current number of idle PostgreSQL connections in the pool",
	})

	DBPoolWaitCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "postgres",
		Name:      "db_pool_wait_count",
		Help:      "Cumulative count of waits for PostgreSQL connections from pool",
	})
)
