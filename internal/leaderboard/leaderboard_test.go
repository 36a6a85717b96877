package leaderboard

import (
	"testing"

	"github.com/mmynk/runpool/internal/models"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		members   []models.MemberActivity
		statuses  map[string]models.PaymentStatus
		wantOrder []string
		wantRanks []int
	}{
		{
			name: "distance decides",
			members: []models.MemberActivity{
				{UserID: "u1", DisplayName: "Ann", Activities: 1, DistanceMeters: 5000},
				{UserID: "u2", DisplayName: "Ben", Activities: 1, DistanceMeters: 12000},
				{UserID: "u3", DisplayName: "Cid", Activities: 4, DistanceMeters: 8000},
			},
			wantOrder: []string{"u2", "u3", "u1"},
			wantRanks: []int{1, 2, 3},
		},
		{
			name: "activity count breaks distance ties",
			members: []models.MemberActivity{
				{UserID: "u1", DisplayName: "Ann", Activities: 1, DistanceMeters: 5000},
				{UserID: "u2", DisplayName: "Ben", Activities: 2, DistanceMeters: 5000},
			},
			wantOrder: []string{"u2", "u1"},
			wantRanks: []int{1, 2},
		},
		{
			name: "full ties share a rank",
			members: []models.MemberActivity{
				{UserID: "u3", DisplayName: "Cid", Activities: 0, DistanceMeters: 0},
				{UserID: "u2", DisplayName: "Ben", Activities: 2, DistanceMeters: 5000},
				{UserID: "u1", DisplayName: "Ann", Activities: 2, DistanceMeters: 5000},
			},
			wantOrder: []string{"u1", "u2", "u3"},
			wantRanks: []int{1, 1, 3},
		},
		{
			name:      "empty group",
			members:   nil,
			wantOrder: nil,
			wantRanks: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.members, tt.statuses)
			if len(got) != len(tt.wantOrder) {
				t.Fatalf("got %d standings, want %d", len(got), len(tt.wantOrder))
			}
			for i, s := range got {
				if s.UserID != tt.wantOrder[i] || s.Rank != tt.wantRanks[i] {
					t.Errorf("standing %d = %s rank %d, want %s rank %d",
						i, s.UserID, s.Rank, tt.wantOrder[i], tt.wantRanks[i])
				}
			}
		})
	}
}

func TestBuildMarksPaid(t *testing.T) {
	members := []models.MemberActivity{
		{UserID: "u1", DisplayName: "Ann"},
		{UserID: "u2", DisplayName: "Ben"},
		{UserID: "u3", DisplayName: "Cid"},
	}
	statuses := map[string]models.PaymentStatus{
		"u1": models.PaymentPaid,
		"u2": models.PaymentPending,
		"u3": models.PaymentRefunded,
	}

	got := Build(members, statuses)
	paid := map[string]bool{}
	for _, s := range got {
		paid[s.UserID] = s.Paid
	}
	if !paid["u1"] || paid["u2"] || paid["u3"] {
		t.Errorf("paid = %v, want only u1", paid)
	}
	if n := PaidCount(got); n != 1 {
		t.Errorf("PaidCount = %d, want 1", n)
	}
}
