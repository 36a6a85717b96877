package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/runpool/internal/metrics"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

// Event outcomes stored with processed events.
const (
	outcomeApplied  = "applied"
	outcomeNoOp     = "noop"
	outcomeRejected = "rejected"
	outcomeOrphan   = "orphan"
	outcomeIgnored  = "ignored"
	outcomeReplay   = "replay"
)

// Reconcile verifies a webhook delivery and applies it.
//
// A delivery that fails verification returns an error wrapping
// ErrInvalidSignature and changes nothing. Replays, events for unknown
// records, backward transitions and unknown event types are acknowledged
// without error. Any other error means the processor should deliver the
// event again.
func (t *Tracker) Reconcile(ctx context.Context, payload []byte, signatureHeader string) error {
	if t.verifier == nil {
		return ErrNotConfigured
	}

	ev, err := t.verifier.Verify(payload, signatureHeader)
	if err != nil {
		metrics.RecordPaymentEvent("unverified", "invalid")
		slog.Warn("Rejected webhook delivery", "error", err)
		return err
	}

	seen, err := t.store.HasProcessedEvent(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", ev.ID, err)
	}
	if seen {
		metrics.RecordPaymentEvent(ev.Type, outcomeReplay)
		slog.Debug("Ignoring replayed event", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	var outcome string
	switch ev.Kind {
	case EventAccountUpdated:
		outcome, err = t.applyAccountUpdate(ctx, ev)
	case EventIgnored:
		outcome = outcomeIgnored
	default:
		outcome, err = t.applyPayment(ctx, ev)
	}
	if err != nil {
		return err
	}

	slog.Info("Processed webhook event", "event_id", ev.ID, "type", ev.Type, "outcome", outcome)
	return t.recordEvent(ctx, ev, outcome)
}

func (t *Tracker) applyPayment(ctx context.Context, ev *Event) (string, error) {
	target, ok := ev.Kind.target()
	if !ok {
		return outcomeIgnored, nil
	}

	record, err := t.locate(ctx, ev)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Webhook event for unknown payment", "event_id", ev.ID, "ref", ev.ProcessorRef)
		return outcomeOrphan, nil
	}
	if err != nil {
		return "", err
	}
	key := record.PaymentKey

	unlock, err := t.locks.Lock(ctx, key.String())
	if err != nil {
		return "", err
	}
	defer unlock()

	for attempt := 0; attempt < casAttempts; attempt++ {
		// Re-read under the lock; another writer may have moved it.
		record, err = t.get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to load payment %s: %w", key, err)
		}

		switch Transition(record.Status, target) {
		case NoOp:
			return outcomeNoOp, nil
		case Reject:
			slog.Warn("Skipping backward payment transition",
				"key", key.String(),
				"from", record.Status,
				"to", target,
				"event_id", ev.ID,
			)
			return outcomeRejected, nil
		}

		ok, err := t.store.CompareAndSetPaymentStatus(ctx, key, record.Status, target, t.now().Unix())
		if err != nil {
			return "", fmt.Errorf("failed to update payment %s: %w", key, err)
		}
		if ok {
			slog.Info("Payment status changed", "key", key.String(), "from", record.Status, "to", target)
			return outcomeApplied, nil
		}
	}
	return "", fmt.Errorf("payment %s kept changing: %w", key, storage.ErrTransient)
}

// locate finds the record an event is about: by the metadata key when
// complete, otherwise by the processor reference.
func (t *Tracker) locate(ctx context.Context, ev *Event) (*models.PaymentRecord, error) {
	if ev.Key.Complete() {
		record, err := t.get(ctx, ev.Key)
		if err == nil || !errors.Is(err, storage.ErrNotFound) || ev.ProcessorRef == "" {
			return record, err
		}
	}

	var record *models.PaymentRecord
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		record, err = t.store.GetPaymentByProcessorRef(ctx, ev.ProcessorRef)
		return err
	})
	return record, err
}

func (t *Tracker) applyAccountUpdate(ctx context.Context, ev *Event) (string, error) {
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		return t.store.SetPayoutsEnabled(ctx, ev.AccountID, ev.PayoutsEnabled)
	})
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Account update for unknown account", "event_id", ev.ID, "account_id", ev.AccountID)
		return outcomeOrphan, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to update payout account: %w", err)
	}
	return outcomeApplied, nil
}
