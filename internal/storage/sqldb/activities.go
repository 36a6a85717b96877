package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/runpool/internal/models"
)

// CreateActivity persists a logged activity.
func (s *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO activities (id, user_id, kind, distance_m, duration_s, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), a.ID, a.UserID, string(a.Kind), a.DistanceMeters, a.DurationSeconds, a.OccurredAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", classify(err))
	}
	return nil
}

// GroupActivity sums each active member's activities in [from, to).
func (s *Store) GroupActivity(ctx context.Context, groupID string, from, to int64) ([]models.MemberActivity, error) {
	var rows []models.MemberActivity
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT u.id AS user_id, u.display_name,
		       COUNT(a.id) AS activities,
		       COALESCE(SUM(a.distance_m), 0) AS distance_m
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN activities a ON a.user_id = m.user_id AND a.occurred_at >= ? AND a.occurred_at < ?
		WHERE m.group_id = ? AND m.active = ?
		GROUP BY u.id, u.display_name
		ORDER BY u.id
	`), from, to, groupID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate group activity: %w", classify(err))
	}
	return rows, nil
}
