// Package payment tracks entry-fee payment state.
//
// Records are created by Initiate and afterwards move only through verified
// processor events applied by Reconcile. Every status change is checked
// against Transition and written with a compare-and-set, so replayed or
// out-of-order webhooks can never move a record backwards.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/runpool/internal/keylock"
	"github.com/mmynk/runpool/internal/metrics"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/period"
	"github.com/mmynk/runpool/internal/storage"
)

var (
	// ErrInvalidKey is returned when user, group or period is missing or
	// the period is not a valid id.
	ErrInvalidKey = errors.New("invalid payment key")

	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNotConfigured is returned when the processor side needed for an
	// operation is not configured.
	ErrNotConfigured = errors.New("payment processor is not configured")
)

// casAttempts bounds how often a transition is retried after losing a
// compare-and-set to a concurrent writer.
const casAttempts = 3

// Store is the persistence the tracker needs.
type Store interface {
	storage.PaymentStore
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetPayoutAccount(ctx context.Context, userID, accountID string) error
	SetPayoutsEnabled(ctx context.Context, accountID string, enabled bool) error
}

// Tracker owns payment records.
type Tracker struct {
	store     Store
	verifier  Verifier
	processor Processor
	locks     keylock.Locker
	now       func() time.Time
}

// NewTracker creates a tracker. verifier and processor may be nil when the
// processor is not configured; the operations needing them then fail with
// ErrNotConfigured.
func NewTracker(store Store, verifier Verifier, processor Processor) *Tracker {
	return &Tracker{
		store:     store,
		verifier:  verifier,
		processor: processor,
		now:       time.Now,
	}
}

// Initiation is the result of Initiate.
type Initiation struct {
	Record *models.PaymentRecord

	// ClientSecret lets the client confirm the intent. Empty when no
	// processor is configured or the record is no longer pending.
	ClientSecret string
}

// Initiate creates the pending record for the key, or returns the existing
// one. It never creates a second record for the same key.
func (t *Tracker) Initiate(ctx context.Context, userID, groupID, periodID string, amount int64) (*Initiation, error) {
	key := models.PaymentKey{UserID: userID, GroupID: groupID, PeriodID: periodID}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	group, err := t.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	unlock, err := t.locks.Lock(ctx, key.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := t.now().Unix()
	inserted, err := t.store.InsertPaymentIfAbsent(ctx, &models.PaymentRecord{
		PaymentKey: key,
		Amount:     amount,
		Currency:   group.Currency,
		Status:     models.PaymentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	record, err := t.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if inserted {
		slog.Info("Payment record created", "key", key.String(), "amount", amount)
	}

	result := &Initiation{Record: record}
	if t.processor == nil || !payable(record.Status) {
		return result, nil
	}

	// A stored intent is reused as is; creating it again could clash with
	// the idempotency key once the destination changed or the key expired.
	if record.ProcessorRef != "" {
		intent, err := t.processor.GetPaymentIntent(ctx, record.ProcessorRef)
		if err != nil {
			return nil, fmt.Errorf("failed to load payment intent: %w", err)
		}
		result.ClientSecret = intent.ClientSecret
		return result, nil
	}

	intent, err := t.createIntent(ctx, record, group)
	if err != nil {
		return nil, err
	}
	result.ClientSecret = intent.ClientSecret

	if _, err := t.store.SetPaymentProcessorRef(ctx, key, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to store payment intent: %w", err)
	}
	record.ProcessorRef = intent.ID
	return result, nil
}

// payable reports whether the user can still complete a payment in status.
// A declined card leaves the intent open for another attempt.
func payable(status models.PaymentStatus) bool {
	return status == models.PaymentPending || status == models.PaymentFailed
}

func (t *Tracker) createIntent(ctx context.Context, record *models.PaymentRecord, group *models.Group) (*Intent, error) {
	req := IntentRequest{
		Key:            record.PaymentKey,
		Amount:         record.Amount,
		Currency:       record.Currency,
		IdempotencyKey: IdempotencyKey(record.PaymentKey),
	}

	if user, err := t.store.GetUserByID(ctx, record.UserID); err == nil {
		req.ReceiptEmail = user.Email
	}
	if owner, err := t.store.GetUserByID(ctx, group.OwnerID); err == nil && owner.PayoutsEnabled {
		req.Destination = owner.PayoutAccountID
	}

	intent, err := t.processor.CreatePaymentIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent, nil
}

// IdempotencyKey derives the processor idempotency key for a payment key.
func IdempotencyKey(key models.PaymentKey) string {
	return "runpool-entry-" + strings.ReplaceAll(key.String(), "/", "-")
}

// Status returns the record's status, or PaymentUnknown when none exists.
func (t *Tracker) Status(ctx context.Context, userID, groupID, periodID string) (models.PaymentStatus, error) {
	key := models.PaymentKey{UserID: userID, GroupID: groupID, PeriodID: periodID}
	if err := validateKey(key); err != nil {
		return models.PaymentUnknown, err
	}

	record, err := t.get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return models.PaymentUnknown, nil
	}
	if err != nil {
		return models.PaymentUnknown, err
	}
	return record.Status, nil
}

// HasPaid reports whether the user's entry fee for the period is paid.
func (t *Tracker) HasPaid(ctx context.Context, userID, groupID, periodID string) (bool, error) {
	status, err := t.Status(ctx, userID, groupID, periodID)
	if err != nil {
		return false, err
	}
	return status == models.PaymentPaid, nil
}

// GroupStatuses returns the payment status of every user with a record in
// the group for the period.
func (t *Tracker) GroupStatuses(ctx context.Context, groupID, periodID string) (map[string]models.PaymentStatus, error) {
	var records []*models.PaymentRecord
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		records, err = t.store.ListGroupPayments(ctx, groupID, periodID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	statuses := make(map[string]models.PaymentStatus, len(records))
	for _, r := range records {
		statuses[r.UserID] = r.Status
	}
	return statuses, nil
}

func (t *Tracker) get(ctx context.Context, key models.PaymentKey) (*models.PaymentRecord, error) {
	var record *models.PaymentRecord
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		record, err = t.store.GetPayment(ctx, key)
		return err
	})
	return record, err
}

func validateKey(key models.PaymentKey) error {
	if !key.Complete() {
		return ErrInvalidKey
	}
	if _, err := period.Parse(key.PeriodID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}

// recordEvent logs the outcome and the event id; duplicates are ignored by
// the store.
func (t *Tracker) recordEvent(ctx context.Context, ev *Event, outcome string) error {
	metrics.RecordPaymentEvent(ev.Type, outcome)
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		return t.store.RecordProcessedEvent(ctx, &models.ProcessedEvent{
			EventID:     ev.ID,
			Type:        ev.Type,
			Outcome:     outcome,
			ProcessedAt: t.now().Unix(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to record event %s: %w", ev.ID, err)
	}
	return nil
}
