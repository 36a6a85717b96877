package service

import (
	"github.com/mmynk/runpool/internal/leaderboard"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		Id:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		PayoutsEnabled: u.PayoutsEnabled,
		CreatedAt:      u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		Rules:     g.Rules,
		EntryFee:  g.EntryFee,
		Currency:  g.Currency,
		OwnerId:   g.OwnerID,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIActivity(a *models.Activity) *api.Activity {
	return &api.Activity{
		Id:              a.ID,
		Kind:            string(a.Kind),
		DistanceMeters:  a.DistanceMeters,
		DurationSeconds: a.DurationSeconds,
		OccurredAt:      a.OccurredAt,
	}
}

func toAPIStandings(standings []leaderboard.Standing) []*api.Standing {
	out := make([]*api.Standing, len(standings))
	for i, s := range standings {
		out[i] = &api.Standing{
			Rank:           s.Rank,
			UserId:         s.UserID,
			DisplayName:    s.DisplayName,
			Activities:     s.Activities,
			DistanceMeters: s.DistanceMeters,
			Paid:           s.Paid,
		}
	}
	return out
}
