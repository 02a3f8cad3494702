// Package notifications delivers signer-facing events to vault members after
// the originating state transition has committed. Delivery is asynchronous
// and best-effort: a failed delivery is logged and dropped, it never blocks
// or rolls back the transaction lifecycle.
package notifications

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/module"
)

const (
	defaultWorkers         = 4
	defaultDeliveryTimeout = 10 * time.Second
)

// Distributor fans events out to a notifier on a bounded worker pool.
type Distributor struct {
	log      zerolog.Logger
	notifier module.Notifier
	pool     *workerpool.WorkerPool
	timeout  time.Duration
}

func NewDistributor(log zerolog.Logger, notifier module.Notifier, workers int) *Distributor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Distributor{
		log:      log.With().Str("component", "notifications").Logger(),
		notifier: notifier,
		pool:     workerpool.New(workers),
		timeout:  defaultDeliveryTimeout,
	}
}

// Dispatch queues the given events for delivery and returns immediately.
func (d *Distributor) Dispatch(events ...vault.Event) {
	for _, event := range events {
		event := event
		d.pool.Submit(func() {
			d.deliver(event)
		})
	}
}

// Stop drains queued deliveries and shuts the pool down.
func (d *Distributor) Stop() {
	d.pool.StopWait()
}

func (d *Distributor) deliver(event vault.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.notifier.Notify(ctx, event)
	if err != nil {
		d.log.Warn().Err(err).
			Str("event_id", event.ID).
			Str("kind", event.Kind.String()).
			Str("transaction_id", event.TransactionID.String()).
			Msg("could not deliver event")
		return
	}

	d.log.Debug().
		Str("event_id", event.ID).
		Str("kind", event.Kind.String()).
		Str("transaction_id", event.TransactionID.String()).
		Int("recipients", len(event.Recipients)).
		Msg("event delivered")
}

// MultiNotifier forwards every event to several delivery channels (for
// example in-app notifications plus email) and reports their failures
// together.
type MultiNotifier struct {
	notifiers []module.Notifier
}

func NewMultiNotifier(notifiers ...module.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Notify(ctx context.Context, event vault.Event) error {
	var result *multierror.Error
	for _, n := range m.notifiers {
		err := n.Notify(ctx, event)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// LogNotifier writes events to the log, the delivery channel of last resort.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "log_notifier").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, event vault.Event) error {
	n.log.Info().
		Str("event_id", event.ID).
		Str("kind", event.Kind.String()).
		Str("transaction_id", event.TransactionID.String()).
		Str("vault_id", event.VaultID).
		Strs("recipients", event.Recipients).
		Msg("signer event")
	return nil
}
