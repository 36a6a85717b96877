package service

import (
	"context"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/membership"
	"github.com/mmynk/runpool/internal/middleware"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

// memberGroup loads a group the caller is an active member of.
func memberGroup(ctx context.Context, groups storage.GroupStore, admission *membership.Admission, groupID string) (*models.Group, error) {
	id := middleware.IdentityFrom(ctx)
	if !id.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	group, err := groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	active, err := admission.IsActiveMember(ctx, id.UserID, group.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrNotMember
	}
	return group, nil
}
