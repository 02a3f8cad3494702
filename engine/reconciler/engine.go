// Package reconciler runs the background verification loop. It periodically
// lists transactions awaiting chain confirmation and reconciles each one
// against the chain, so terminal outcomes are applied even when nobody reads
// the transaction.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/Daniellrra/bako-safe-api/engine"
	"github.com/Daniellrra/bako-safe-api/engine/coordinator"
	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/storage"
)

const (
	defaultInterval    = 10 * time.Second
	defaultStartDelay  = 2 * time.Second
	defaultConcurrency = 4
	defaultBatchLimit  = 100
)

// Config parameterizes the reconciliation loop.
type Config struct {
	// Interval is the time between polling rounds.
	Interval time.Duration
	// StartDelay postpones the first round after startup.
	StartDelay time.Duration
	// Concurrency bounds the number of transactions reconciled in parallel
	// within one round.
	Concurrency int
	// BatchLimit caps how many transactions one round picks up.
	BatchLimit uint
}

// Engine polls the chain for the outcome of submitted transactions.
type Engine struct {
	unit  *engine.Unit
	log   zerolog.Logger
	coord *coordinator.Coordinator
	conf  Config
}

func New(log zerolog.Logger, coord *coordinator.Coordinator, conf Config) *Engine {
	if conf.Interval == 0 {
		conf.Interval = defaultInterval
	}
	if conf.StartDelay == 0 {
		conf.StartDelay = defaultStartDelay
	}
	if conf.Concurrency <= 0 {
		conf.Concurrency = defaultConcurrency
	}
	if conf.BatchLimit == 0 {
		conf.BatchLimit = defaultBatchLimit
	}

	return &Engine{
		unit:  engine.NewUnit(),
		log:   log.With().Str("engine", "reconciler").Logger(),
		coord: coord,
		conf:  conf,
	}
}

// Ready starts the polling loop and returns a channel that is closed once the
// engine is up.
func (e *Engine) Ready() <-chan struct{} {
	e.unit.LaunchPeriodically(e.round, e.conf.Interval, e.conf.StartDelay)
	return e.unit.Ready()
}

// Done stops the loop and returns a channel that is closed once the round in
// progress, if any, has finished.
func (e *Engine) Done() <-chan struct{} {
	return e.unit.Done()
}

// round reconciles every transaction currently awaiting chain confirmation.
// Individual failures are logged and skipped; the next round retries them.
func (e *Engine) round() {
	list, err := e.coord.List(
		storage.TransactionFilter{
			Statuses: []vault.TransactionStatus{vault.TransactionStatusAwaitingConfirmation},
		},
		storage.Pagination{Limit: e.conf.BatchLimit},
		storage.DefaultOrdination(),
	)
	if err != nil {
		e.log.Error().Err(err).Msg("could not list transactions awaiting confirmation")
		return
	}
	if len(list.Transactions) == 0 {
		return
	}

	e.log.Debug().Int("transactions", len(list.Transactions)).Msg("starting reconciliation round")

	g, ctx := errgroup.WithContext(e.unit.Ctx())
	g.SetLimit(e.conf.Concurrency)
	for _, tx := range list.Transactions {
		txID := tx.ID
		g.Go(func() error {
			e.reconcileOne(ctx, txID)
			return nil
		})
	}
	_ = g.Wait()
}

// reconcileOne reconciles a single transaction, retrying transient storage
// contention with a short backoff. Chain-side pending states are not retried
// here; the next round picks them up.
func (e *Engine) reconcileOne(ctx context.Context, txID vault.Identifier) {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resume, err := e.coord.Reconcile(ctx, txID)
		if err != nil {
			if vault.IsInvalidStateError(err) {
				// resolved by another path between listing and reconciling
				return nil
			}
			return retry.RetryableError(err)
		}

		if resume.Status.IsTerminal() {
			e.log.Info().
				Str("transaction_id", txID.String()).
				Str("status", resume.Status.String()).
				Msg("transaction reached terminal state")
		}
		return nil
	})
	if err != nil {
		e.log.Warn().Err(err).
			Str("transaction_id", txID.String()).
			Msg("could not reconcile transaction")
	}
}
