package notifications_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/notifications"
	"github.com/Daniellrra/bako-safe-api/utils/unittest"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []vault.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event vault.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) received() []vault.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]vault.Event(nil), n.events...)
}

func TestDistributorDelivers(t *testing.T) {
	notifier := &recordingNotifier{}
	dist := notifications.NewDistributor(unittest.Logger(), notifier, 2)

	dist.Dispatch(
		vault.Event{ID: "1", Kind: vault.EventTransactionCreated, Recipients: []string{"m1", "m2"}},
		vault.Event{ID: "2", Kind: vault.EventTransactionSigned, Recipients: []string{"m1"}},
	)
	dist.Stop()

	events := notifier.received()
	require.Len(t, events, 2)
}

// A failing notifier never propagates anywhere; dispatch keeps working.
func TestDistributorSwallowsFailures(t *testing.T) {
	notifier := &recordingNotifier{err: fmt.Errorf("smtp down")}
	dist := notifications.NewDistributor(unittest.Logger(), notifier, 2)

	unittest.RequireReturnsBefore(t, func() {
		dist.Dispatch(vault.Event{ID: "1", Kind: vault.EventTransactionCreated})
		dist.Stop()
	}, time.Second, "dispatch and stop")
}

func TestMultiNotifier(t *testing.T) {
	healthy := &recordingNotifier{}
	failing := &recordingNotifier{err: fmt.Errorf("smtp down")}

	multi := notifications.NewMultiNotifier(healthy, failing)
	err := multi.Notify(context.Background(), vault.Event{ID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Len(t, healthy.received(), 1)

	multi = notifications.NewMultiNotifier(healthy)
	require.NoError(t, multi.Notify(context.Background(), vault.Event{ID: "2"}))
}
