package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

// CreateInviteToken stores a newly issued token.
func (s *Store) CreateInviteToken(ctx context.Context, token *models.InviteToken) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO invite_tokens (token, group_id, created_by, issued_at, expires_at, single_use, consumed_at, consumed_by, uses)
		VALUES (:token, :group_id, :created_by, :issued_at, :expires_at, :single_use, :consumed_at, :consumed_by, :uses)
	`, token)
	if err != nil {
		return fmt.Errorf("failed to create invite token: %w", classify(err))
	}
	return nil
}

// GetInviteToken looks up a token.
func (s *Store) GetInviteToken(ctx context.Context, token string) (*models.InviteToken, error) {
	t := &models.InviteToken{}
	err := s.db.GetContext(ctx, t, s.q(`
		SELECT token, group_id, created_by, issued_at, expires_at, single_use, consumed_at, consumed_by, uses
		FROM invite_tokens WHERE token = ?
	`), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invite token: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite token: %w", classify(err))
	}
	return t, nil
}

// ConsumeInviteToken claims a single-use token with one conditional update,
// so concurrent callers cannot both win.
func (s *Store) ConsumeInviteToken(ctx context.Context, token, userID string, now int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE invite_tokens
		SET consumed_at = ?, consumed_by = ?, uses = uses + 1
		WHERE token = ? AND single_use = ? AND consumed_at = 0
	`), now, userID, token, true)
	if err != nil {
		return false, fmt.Errorf("failed to consume invite token: %w", classify(err))
	}
	return rowsChanged(res)
}

// IncrementInviteUses counts a resolution of a reusable token.
func (s *Store) IncrementInviteUses(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE invite_tokens SET uses = uses + 1 WHERE token = ?`), token)
	if err != nil {
		return fmt.Errorf("failed to count invite use: %w", classify(err))
	}
	return nil
}
