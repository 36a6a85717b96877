package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

const userColumns = `id, email, display_name, password_hash, payout_account_id, payouts_enabled, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :display_name, :password_hash, :payout_account_id, :payouts_enabled, :created_at, :updated_at)
	`, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, s.q(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, classify(err))
	}
	return user, nil
}

// SetPayoutAccount stores the connected account id for a user.
func (s *Store) SetPayoutAccount(ctx context.Context, userID, accountID string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE users SET payout_account_id = ?, updated_at = ? WHERE id = ?`),
		accountID, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set payout account: %w", classify(err))
	}
	if ok, err := rowsChanged(res); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}

// SetPayoutsEnabled updates the payouts flag for the owner of accountID.
func (s *Store) SetPayoutsEnabled(ctx context.Context, accountID string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE users SET payouts_enabled = ?, updated_at = ? WHERE payout_account_id = ?`),
		enabled, time.Now().Unix(), accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to set payouts enabled: %w", classify(err))
	}
	if ok, err := rowsChanged(res); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("payout account %s: %w", accountID, storage.ErrNotFound)
	}
	return nil
}
