package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

// CreateMembership inserts a membership. The primary key on
// (user_id, group_id) turns a duplicate into storage.ErrConflict.
func (s *Store) CreateMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO memberships (user_id, group_id, active, joined_at)
		VALUES (:user_id, :group_id, :active, :joined_at)
	`, m)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", classify(err))
	}
	return nil
}

// GetMembership looks up the membership of a user in a group.
func (s *Store) GetMembership(ctx context.Context, userID, groupID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.db.GetContext(ctx, m, s.q(`
		SELECT user_id, group_id, active, joined_at
		FROM memberships WHERE user_id = ? AND group_id = ?
	`), userID, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("membership %s/%s: %w", userID, groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", classify(err))
	}
	return m, nil
}

// SetMembershipActive marks a membership active or inactive.
func (s *Store) SetMembershipActive(ctx context.Context, userID, groupID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE memberships SET active = ? WHERE user_id = ? AND group_id = ?`),
		active, userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", classify(err))
	}
	if ok, err := rowsChanged(res); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("membership %s/%s: %w", userID, groupID, storage.ErrNotFound)
	}
	return nil
}
