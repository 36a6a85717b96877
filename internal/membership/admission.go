// Package membership admits users into groups.
//
// Admission is idempotent: the store's uniqueness constraint on
// (user, group) decides races, and a caller that loses one simply reads
// the membership the winner created.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/metrics"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

var (
	// ErrGroupNotFound is returned when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrOwnerCannotLeave is returned when the owner tries to leave.
	ErrOwnerCannotLeave = errors.New("the group owner cannot leave the group")

	// ErrNotMember is returned when leaving a group the user is not in.
	ErrNotMember = errors.New("not a member of this group")
)

// Store is the persistence admission needs.
type Store interface {
	storage.MembershipStore
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// Ref describes the membership returned by Admit.
type Ref struct {
	UserID   string
	GroupID  string
	JoinedAt int64

	// Created is true when this call created the membership.
	Created bool
}

// Admission creates and retires memberships.
type Admission struct {
	store Store
}

// NewAdmission creates an admission over the given store.
func NewAdmission(store Store) *Admission {
	return &Admission{store: store}
}

// Admit makes the caller an active member of the group, returning the
// existing membership unchanged when there is one.
func (a *Admission) Admit(ctx context.Context, id *models.Identity, groupID string) (Ref, error) {
	if !id.Valid() {
		return Ref{}, auth.ErrUnauthenticated
	}
	if _, err := a.group(ctx, groupID); err != nil {
		metrics.RecordAdmission("error")
		return Ref{}, err
	}

	existing, err := a.lookup(ctx, id.UserID, groupID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		metrics.RecordAdmission("error")
		return Ref{}, err
	}
	if existing != nil {
		return a.reuse(ctx, existing)
	}

	m := &models.Membership{
		UserID:   id.UserID,
		GroupID:  groupID,
		Active:   true,
		JoinedAt: time.Now().Unix(),
	}
	err = a.store.CreateMembership(ctx, m)
	if errors.Is(err, storage.ErrConflict) {
		// A concurrent admission won; read what it wrote, once.
		existing, err = a.lookup(ctx, id.UserID, groupID)
		if err != nil {
			metrics.RecordAdmission("error")
			return Ref{}, err
		}
		return a.reuse(ctx, existing)
	}
	if err != nil {
		metrics.RecordAdmission("error")
		return Ref{}, fmt.Errorf("failed to create membership: %w", err)
	}

	metrics.RecordAdmission("created")
	slog.Info("Member admitted", "user_id", id.UserID, "group_id", groupID)
	return Ref{UserID: m.UserID, GroupID: m.GroupID, JoinedAt: m.JoinedAt, Created: true}, nil
}

// Leave marks the caller's membership inactive.
func (a *Admission) Leave(ctx context.Context, id *models.Identity, groupID string) error {
	if !id.Valid() {
		return auth.ErrUnauthenticated
	}
	group, err := a.group(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID == id.UserID {
		return ErrOwnerCannotLeave
	}

	m, err := a.lookup(ctx, id.UserID, groupID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !m.Active) {
		return ErrNotMember
	}
	if err != nil {
		return err
	}

	if err := a.store.SetMembershipActive(ctx, id.UserID, groupID, false); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	slog.Info("Member left group", "user_id", id.UserID, "group_id", groupID)
	return nil
}

// IsActiveMember reports whether the user currently belongs to the group.
func (a *Admission) IsActiveMember(ctx context.Context, userID, groupID string) (bool, error) {
	m, err := a.lookup(ctx, userID, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Active, nil
}

func (a *Admission) reuse(ctx context.Context, m *models.Membership) (Ref, error) {
	ref := Ref{UserID: m.UserID, GroupID: m.GroupID, JoinedAt: m.JoinedAt}
	if m.Active {
		metrics.RecordAdmission("existing")
		return ref, nil
	}

	// Setting the flag is idempotent, so retrying is safe.
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		return a.store.SetMembershipActive(ctx, m.UserID, m.GroupID, true)
	})
	if err != nil {
		metrics.RecordAdmission("error")
		return Ref{}, fmt.Errorf("failed to reactivate membership: %w", err)
	}
	metrics.RecordAdmission("reactivated")
	slog.Info("Member rejoined", "user_id", m.UserID, "group_id", m.GroupID)
	return ref, nil
}

func (a *Admission) lookup(ctx context.Context, userID, groupID string) (*models.Membership, error) {
	var m *models.Membership
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		m, err = a.store.GetMembership(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (a *Admission) group(ctx context.Context, groupID string) (*models.Group, error) {
	var g *models.Group
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		g, err = a.store.GetGroup(ctx, groupID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return g, nil
}
