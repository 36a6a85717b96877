package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

const groupColumns = `id, name, rules, entry_fee, currency, owner_id, created_at`

// CreateGroup persists a new group and makes its owner the first member.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = "usd"
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO groups (`+groupColumns+`)
		VALUES (:id, :name, :rules, :entry_fee, :currency, :owner_id, :created_at)
	`, group)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", classify(err))
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO memberships (user_id, group_id, active, joined_at) VALUES (?, ?, ?, ?)`),
		group.OwnerID, group.ID, true, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.GetContext(ctx, group, s.q(`SELECT `+groupColumns+` FROM groups WHERE id = ?`), groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", classify(err))
	}
	return group, nil
}

// UpdateGroup updates the mutable fields of a group.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE groups SET name = ?, rules = ?, entry_fee = ? WHERE id = ?`),
		group.Name, group.Rules, group.EntryFee, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", classify(err))
	}
	if ok, err := rowsChanged(res); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	return nil
}

// ListGroupsForUser returns the user's active groups, newest first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	var groups []*models.Group
	err := s.db.SelectContext(ctx, &groups, s.q(`
		SELECT g.id, g.name, g.rules, g.entry_fee, g.currency, g.owner_id, g.created_at
		FROM groups g
		JOIN memberships m ON m.group_id = g.id
		WHERE m.user_id = ? AND m.active = ?
		ORDER BY g.created_at DESC, g.id
	`), userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", classify(err))
	}
	return groups, nil
}
