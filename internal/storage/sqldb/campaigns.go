package sqldb

import (
	"context"
	"fmt"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

// HasSendRecord reports whether the campaign already reached the user.
func (s *Store) HasSendRecord(ctx context.Context, userID, campaignType, periodID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`
		SELECT COUNT(*) FROM campaign_sends
		WHERE user_id = ? AND campaign_type = ? AND period_id = ?
	`), userID, campaignType, periodID)
	if err != nil {
		return false, fmt.Errorf("failed to check send record: %w", classify(err))
	}
	return n > 0, nil
}

// CreateSendRecord stores a send record; a duplicate triple is ErrConflict.
func (s *Store) CreateSendRecord(ctx context.Context, record *models.CampaignSendRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO campaign_sends (user_id, campaign_type, period_id, message_id, sent_at)
		VALUES (:user_id, :campaign_type, :period_id, :message_id, :sent_at)
	`, record)
	if err != nil {
		return fmt.Errorf("failed to create send record: %w", classify(err))
	}
	return nil
}

// PendingPaymentRecipients lists active members whose entry fee for the
// period is still pending after the grace deadline.
func (s *Store) PendingPaymentRecipients(ctx context.Context, periodID string, createdBefore int64) ([]models.Recipient, error) {
	var recipients []models.Recipient
	err := s.db.SelectContext(ctx, &recipients, s.q(`
		SELECT p.user_id, u.email, u.display_name, p.group_id, g.name AS group_name, p.amount, p.currency
		FROM payments p
		JOIN users u ON u.id = p.user_id
		JOIN groups g ON g.id = p.group_id
		JOIN memberships m ON m.user_id = p.user_id AND m.group_id = p.group_id
		WHERE p.period_id = ? AND p.status = ? AND p.created_at <= ? AND m.active = ?
		ORDER BY p.user_id, p.group_id
	`), periodID, string(models.PaymentPending), createdBefore, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payments: %w", classify(err))
	}
	return recipients, nil
}

// WindowRecipients lists active memberships whose activity count in the
// window falls within its bounds.
func (s *Store) WindowRecipients(ctx context.Context, w storage.ActivityWindow) ([]models.Recipient, error) {
	query := `
		SELECT u.id AS user_id, u.email, u.display_name, g.id AS group_id, g.name AS group_name,
		       COUNT(a.id) AS activities
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		JOIN groups g ON g.id = m.group_id
		LEFT JOIN activities a ON a.user_id = m.user_id AND a.occurred_at >= ? AND a.occurred_at < ?
		WHERE m.active = ?
		GROUP BY u.id, u.email, u.display_name, g.id, g.name
		HAVING COUNT(a.id) >= ?`
	args := []any{w.From, w.To, true, w.Min}
	if w.Max >= 0 {
		query += ` AND COUNT(a.id) <= ?`
		args = append(args, w.Max)
	}
	query += ` ORDER BY u.id, g.id`

	var recipients []models.Recipient
	if err := s.db.SelectContext(ctx, &recipients, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query activity window: %w", classify(err))
	}
	return recipients, nil
}
