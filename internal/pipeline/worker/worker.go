// Package worker runs the wallet ledger pipeline: it plans the active
// wallets and drives each one from fetch through balance monitoring.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/alert"
	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/canonicalizer"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/depletion"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/ledger"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/linker"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/monitor"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/retry"
	"github.com/Apillon/apillon-services-sub004/internal/store"
	"github.com/Apillon/apillon-services-sub004/internal/tracing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency    = 4
	defaultWindowLimit    = 50
	defaultFetchTimeout   = 60 * time.Second
	defaultDBTimeout      = 30 * time.Second
	defaultBalanceTimeout = 20 * time.Second
	defaultPriceTimeout   = 10 * time.Second
)

// Config bounds one worker run.
type Config struct {
	Concurrency int
	Filter      model.WalletFilter
	// WindowLimit is used for wallets without a block_parse_size.
	WindowLimit    int
	FetchTimeout   time.Duration
	DBTimeout      time.Duration
	BalanceTimeout time.Duration
	PriceTimeout   time.Duration
	FetchRetry     retry.Policy
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.WindowLimit <= 0 {
		c.WindowLimit = defaultWindowLimit
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.DBTimeout <= 0 {
		c.DBTimeout = defaultDBTimeout
	}
	if c.BalanceTimeout <= 0 {
		c.BalanceTimeout = defaultBalanceTimeout
	}
	if c.PriceTimeout <= 0 {
		c.PriceTimeout = defaultPriceTimeout
	}
	return c
}

// PriceLookup returns the fiat price of one whole token.
type PriceLookup interface {
	UnitPrice(ctx context.Context, token string) (decimal.Decimal, bool, error)
}

// Deps are the collaborators of a Worker.
type Deps struct {
	DB        store.TxBeginner
	Wallets   store.WalletRepository
	Families  *chain.Registry
	Writer    *ledger.Writer
	Linker    *linker.Linker
	Depletion *depletion.Engine
	Monitor   *monitor.Monitor
	Prices    PriceLookup
	Alerter   alert.Alerter
	Health    *Health
}

type Worker struct {
	Deps
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Worker {
	if deps.Alerter == nil {
		deps.Alerter = &alert.NoopAlerter{}
	}
	if deps.Health == nil {
		deps.Health = NewHealth()
	}
	return &Worker{
		Deps:   deps,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "worker"),
	}
}

// WalletResult is the outcome of one wallet run.
type WalletResult struct {
	WalletID int64
	Key      model.ChainKey
	Address  string
	State    State
	// FailedAt is the state the run failed in; empty unless State is FAILED.
	FailedAt State
	Inserted int
	Err      error
}

// Summary aggregates one worker run.
type Summary struct {
	RunID    uuid.UUID
	Planned  int
	Done     int
	Failed   int
	Skipped  int
	Inserted int
	Results  []WalletResult
}

// Run plans the active wallets and processes them in parallel, at most
// Concurrency at a time. A failing wallet never stops the others. Wallets
// not started before ctx is cancelled are counted as skipped.
func (w *Worker) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.New()}
	log := w.logger.With("run_id", summary.RunID.String())

	ctx, span := tracing.Tracer("worker").Start(ctx, "worker.run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", summary.RunID.String()))

	wallets, err := w.plan(ctx)
	if err != nil {
		metrics.WorkerRunsTotal.WithLabelValues("plan_failed").Inc()
		return summary, err
	}
	summary.Planned = len(wallets)
	metrics.WorkerWalletsPlanned.Set(float64(len(wallets)))
	log.Info("wallets planned", "count", len(wallets), "chain", w.cfg.Filter.Chain, "chain_type", w.cfg.Filter.ChainType)

	results := make([]WalletResult, len(wallets))
	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)
	for i, wallet := range wallets {
		if ctx.Err() != nil {
			break
		}
		i, wallet := i, wallet
		g.Go(func() error {
			results[i] = w.RunWallet(ctx, summary.RunID, wallet)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		switch r.State {
		case StateDone:
			summary.Done++
		case StateFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
		summary.Inserted += r.Inserted
	}
	summary.Results = results

	outcome := "success"
	switch {
	case ctx.Err() != nil:
		outcome = "canceled"
	case summary.Failed > 0:
		outcome = "partial"
	}
	metrics.WorkerRunsTotal.WithLabelValues(outcome).Inc()
	metrics.WorkerRunDuration.Observe(time.Since(start).Seconds())

	log.Info("worker run finished",
		"outcome", outcome,
		"planned", summary.Planned,
		"done", summary.Done,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"inserted", summary.Inserted,
		"duration", time.Since(start),
	)
	return summary, ctx.Err()
}

func (w *Worker) plan(ctx context.Context) ([]*model.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.DBTimeout)
	defer cancel()

	wallets, err := w.Wallets.ListActive(ctx, w.cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("plan wallets: %w", err)
	}
	return wallets, nil
}

// walletRun carries the state of one wallet through its stages.
type walletRun struct {
	*Worker
	runID    uuid.UUID
	wallet   *model.Wallet
	family   chain.Family
	sm       *machine
	log      *slog.Logger
	inserted []*model.TransactionLog
	// pending alerts are delivered only after the ledger commit.
	pending []alert.Alert
}

// RunWallet drives one wallet from PLANNED to DONE or FAILED.
func (w *Worker) RunWallet(ctx context.Context, runID uuid.UUID, wallet *model.Wallet) WalletResult {
	start := time.Now()
	key := wallet.Key()
	r := &walletRun{
		Worker: w,
		runID:  runID,
		wallet: wallet,
		sm:     newMachine(),
		log: w.logger.With(
			"run_id", runID.String(),
			"chain", wallet.Chain,
			"chain_type", wallet.ChainType,
			"address", wallet.Address,
		),
	}

	ctx, span := tracing.StartStage(ctx, "run",
		attribute.String("run_id", runID.String()),
		attribute.String("chain", string(wallet.Chain)),
		attribute.String("chain_type", string(wallet.ChainType)),
		attribute.String("address", wallet.Address),
	)
	err := r.execute(ctx)
	tracing.End(span, err)

	latency := time.Since(start)
	metrics.WalletRunLatency.WithLabelValues(string(wallet.Chain), string(wallet.ChainType)).Observe(latency.Seconds())

	res := WalletResult{
		WalletID: wallet.ID,
		Key:      key,
		Address:  wallet.Address,
		Inserted: len(r.inserted),
		Err:      err,
	}
	if err != nil {
		if r.sm.state != StateFailed {
			_ = r.sm.advance(StateFailed)
		}
		r.reportFailure(ctx, err)
	} else if w.Health.For(key).RecordSuccess(latency) {
		r.log.Info("chain recovered", "chain_key", key.String())
	}
	res.State = r.sm.state
	res.FailedAt = r.sm.failedAt
	metrics.WalletRunsTotal.WithLabelValues(string(wallet.Chain), string(wallet.ChainType), string(res.State)).Inc()
	return res
}

func (r *walletRun) execute(ctx context.Context) error {
	batch, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	var entries []*model.TransactionLog
	if err := r.stage(ctx, StateCanonicalizing, func(ctx context.Context) error {
		entries, err = canonicalizer.Canonicalize(r.wallet, batch, r.family.Rules())
		return err
	}); err != nil {
		return err
	}

	if err := r.commitLedger(ctx, entries); err != nil {
		return err
	}
	r.flushAlerts(ctx)

	if err := r.stage(ctx, StateMonitoring, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.cfg.BalanceTimeout)
		defer cancel()
		alerts, err := r.Monitor.Check(ctx, r.wallet, r.family)
		r.pending = append(r.pending, alerts...)
		return err
	}); err != nil {
		return err
	}
	r.flushAlerts(ctx)

	if err := r.sm.advance(StateDone); err != nil {
		return err
	}
	if n := len(r.inserted); n > 0 {
		msg := fmt.Sprintf("%d transactions logged for %s", n, r.wallet.Label())
		r.log.Info(msg, "count", n)
		r.send(ctx, alert.Alert{
			Severity:  alert.SeverityInfo,
			Chain:     r.wallet.Chain,
			ChainType: r.wallet.ChainType,
			Wallet:    r.wallet.Address,
			Title:     msg,
			Message:   msg,
		})
	}
	return nil
}

// stage advances the run to s and runs fn inside a span for it.
func (r *walletRun) stage(ctx context.Context, s State, fn func(context.Context) error) error {
	if err := r.sm.advance(s); err != nil {
		return err
	}
	name := strings.ToLower(string(s))
	ctx, span := tracing.StartStage(ctx, name)
	err := fn(ctx)
	tracing.End(span, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *walletRun) fetch(ctx context.Context) (*event.RawBatch, error) {
	var batch *event.RawBatch
	err := r.stage(ctx, StateFetching, func(ctx context.Context) error {
		family, err := r.Families.Get(r.wallet.Key())
		if err != nil {
			return err
		}
		r.family = family

		dbCtx, cancel := context.WithTimeout(ctx, r.cfg.DBTimeout)
		fromBlock, err := r.Writer.Watermark(dbCtx, r.wallet)
		cancel()
		if err != nil {
			return err
		}

		limit := r.wallet.BlockParseSize
		if limit <= 0 {
			limit = r.cfg.WindowLimit
		}
		err = retry.Do(ctx, r.log, "fetch", r.cfg.FetchRetry, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
			defer cancel()
			b, err := family.Fetch(ctx, r.wallet.Address, fromBlock, limit)
			if err != nil {
				return err
			}
			batch = b
			return nil
		})
		if err != nil {
			return err
		}

		r.recordBatch(batch)
		return nil
	})
	return batch, err
}

func (r *walletRun) recordBatch(batch *event.RawBatch) {
	chainLabel, chainType := string(r.wallet.Chain), string(r.wallet.ChainType)
	metrics.SourceEventsFetched.WithLabelValues(chainLabel, chainType, string(event.KindTransfer)).Add(float64(len(batch.Transfers)))
	metrics.SourceEventsFetched.WithLabelValues(chainLabel, chainType, string(event.KindSystem)).Add(float64(len(batch.SystemEvents)))
	metrics.SourceEventsFetched.WithLabelValues(chainLabel, chainType, string(event.KindExtra)).Add(float64(len(batch.Extra)))

	if batch.Saturated() {
		metrics.SourceSaturatedWindows.WithLabelValues(chainLabel, chainType).Inc()
		r.log.Warn("fetch window saturated at watermark block",
			"from_block", batch.FromBlock,
			"limit", batch.Limit,
			"events", batch.Len(),
		)
	}
}

// commitLedger writes, links and depletes inside one transaction.
func (r *walletRun) commitLedger(ctx context.Context, entries []*model.TransactionLog) error {
	unitPrice := r.lookupPrice(ctx, entries)
	ledger.Valuate(entries, r.wallet.Decimals, unitPrice)

	txCtx, cancel := context.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	var tx *sql.Tx
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := r.stage(txCtx, StateWriting, func(ctx context.Context) error {
		var err error
		tx, err = r.DB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		r.inserted, err = r.Writer.WriteTx(ctx, tx, r.wallet, entries)
		return err
	}); err != nil {
		r.inserted = nil
		return err
	}

	if err := r.stage(txCtx, StateLinking, func(ctx context.Context) error {
		res, err := r.Linker.LinkTx(ctx, tx, r.wallet, r.inserted)
		if err != nil {
			return err
		}
		if len(res.Unlinked) > 0 {
			r.pending = append(r.pending, linker.UnlinkedAlert(r.wallet, res.Unlinked))
		}
		return nil
	}); err != nil {
		r.inserted, r.pending = nil, nil
		return err
	}

	if err := r.stage(txCtx, StateDepleting, func(ctx context.Context) error {
		res, err := r.Depletion.ApplyTx(ctx, tx, r.wallet, r.inserted, unitPrice)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		tx = nil
		r.log.Debug("ledger committed",
			"inserted", len(r.inserted),
			"deposits_opened", res.Opened,
			"drained", res.Drained.String(),
			"shortfall", res.Shortfall.String(),
		)
		return nil
	}); err != nil {
		r.inserted, r.pending = nil, nil
		return err
	}
	return nil
}

// lookupPrice never fails the run: an unknown price leaves values null.
func (r *walletRun) lookupPrice(ctx context.Context, entries []*model.TransactionLog) decimal.NullDecimal {
	if len(entries) == 0 || r.Prices == nil || r.wallet.Token == "" {
		return decimal.NullDecimal{}
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.PriceTimeout)
	defer cancel()

	p, ok, err := r.Prices.UnitPrice(ctx, r.wallet.Token)
	if err != nil {
		r.log.Warn("price lookup failed", "token", r.wallet.Token, "error", err)
		return decimal.NullDecimal{}
	}
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: p, Valid: true}
}

func (r *walletRun) flushAlerts(ctx context.Context) {
	for _, a := range r.pending {
		r.send(ctx, a)
	}
	r.pending = nil
}

func (r *walletRun) send(ctx context.Context, a alert.Alert) {
	if err := r.Alerter.Send(ctx, a); err != nil {
		r.log.Warn("alert delivery failed", "title", a.Title, "error", err)
	}
}

func (r *walletRun) reportFailure(ctx context.Context, err error) {
	key := r.wallet.Key()
	stage := strings.ToLower(string(r.sm.failedAt))
	decision := retry.Classify(err)

	metrics.WalletStageFailures.WithLabelValues(string(r.wallet.Chain), string(r.wallet.ChainType), stage, string(decision.Class)).Inc()
	r.log.Error("wallet run failed",
		"stage", stage,
		"class", decision.Class,
		"reason", decision.Reason,
		"inserted", len(r.inserted),
		"error", err,
	)
	if ctx.Err() != nil {
		return
	}

	severity := alert.SeverityWarn
	if !decision.IsTransient() {
		severity = alert.SeverityAlert
	}
	r.send(ctx, alert.Alert{
		Severity:  severity,
		Chain:     r.wallet.Chain,
		ChainType: r.wallet.ChainType,
		Wallet:    r.wallet.Address,
		Title:     "wallet run failed",
		Message:   err.Error(),
		Fields: map[string]string{
			"stage":  stage,
			"class":  string(decision.Class),
			"reason": decision.Reason,
			"runId":  r.runID.String(),
		},
		DedupKey: "run-failed:" + key.String() + ":" + r.wallet.NormalizedAddress() + ":" + stage,
	})

	if r.Health.For(key).RecordFailure() {
		r.send(ctx, alert.Alert{
			Severity:  alert.SeverityAlert,
			Chain:     r.wallet.Chain,
			ChainType: r.wallet.ChainType,
			Title:     "chain unhealthy",
			Message:   fmt.Sprintf("%d consecutive wallet runs failed on %s", DefaultUnhealthyThreshold, key),
			DedupKey:  "chain-unhealthy:" + key.String(),
		})
	}
}
