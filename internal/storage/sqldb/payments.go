package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

const paymentColumns = `user_id, group_id, period_id, amount, currency, status, processor_ref, created_at, updated_at`

// InsertPaymentIfAbsent inserts the record unless its key already exists.
func (s *Store) InsertPaymentIfAbsent(ctx context.Context, record *models.PaymentRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, group_id, period_id) DO NOTHING
	`), record.UserID, record.GroupID, record.PeriodID, record.Amount, record.Currency,
		string(record.Status), record.ProcessorRef, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment: %w", classify(err))
	}
	return rowsChanged(res)
}

// GetPayment retrieves the record for a key.
func (s *Store) GetPayment(ctx context.Context, key models.PaymentKey) (*models.PaymentRecord, error) {
	return s.getPayment(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND group_id = ? AND period_id = ?`,
		key.UserID, key.GroupID, key.PeriodID,
	)
}

// GetPaymentByProcessorRef retrieves the record created for a payment intent.
func (s *Store) GetPaymentByProcessorRef(ctx context.Context, ref string) (*models.PaymentRecord, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty processor reference: %w", storage.ErrNotFound)
	}
	return s.getPayment(ctx, `SELECT `+paymentColumns+` FROM payments WHERE processor_ref = ?`, ref)
}

func (s *Store) getPayment(ctx context.Context, query string, args ...any) (*models.PaymentRecord, error) {
	record := &models.PaymentRecord{}
	err := s.db.GetContext(ctx, record, s.q(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", classify(err))
	}
	return record, nil
}

// SetPaymentProcessorRef attaches a payment intent reference once.
func (s *Store) SetPaymentProcessorRef(ctx context.Context, key models.PaymentKey, ref string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE payments SET processor_ref = ?
		WHERE user_id = ? AND group_id = ? AND period_id = ? AND processor_ref = ''
	`), ref, key.UserID, key.GroupID, key.PeriodID)
	if err != nil {
		return false, fmt.Errorf("failed to set processor reference: %w", classify(err))
	}
	return rowsChanged(res)
}

// CompareAndSetPaymentStatus moves a record between statuses only if it is
// still in the expected one.
func (s *Store) CompareAndSetPaymentStatus(ctx context.Context, key models.PaymentKey, from, to models.PaymentStatus, now int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE payments SET status = ?, updated_at = ?
		WHERE user_id = ? AND group_id = ? AND period_id = ? AND status = ?
	`), string(to), now, key.UserID, key.GroupID, key.PeriodID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", classify(err))
	}
	return rowsChanged(res)
}

// ListGroupPayments returns all records of a group for a period.
func (s *Store) ListGroupPayments(ctx context.Context, groupID, periodID string) ([]*models.PaymentRecord, error) {
	var records []*models.PaymentRecord
	err := s.db.SelectContext(ctx, &records, s.q(`
		SELECT `+paymentColumns+` FROM payments
		WHERE group_id = ? AND period_id = ?
		ORDER BY user_id
	`), groupID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", classify(err))
	}
	return records, nil
}

// HasProcessedEvent reports whether the processor event was already handled.
func (s *Store) HasProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM processed_events WHERE event_id = ?`), eventID)
	if err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", classify(err))
	}
	return n > 0, nil
}

// RecordProcessedEvent stores a handled event; duplicates are ignored.
func (s *Store) RecordProcessedEvent(ctx context.Context, event *models.ProcessedEvent) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO processed_events (event_id, event_type, outcome, processed_at)
		VALUES (:event_id, :event_type, :outcome, :processed_at)
		ON CONFLICT (event_id) DO NOTHING
	`, event)
	if err != nil {
		return fmt.Errorf("failed to record processed event: %w", classify(err))
	}
	return nil
}
