package leaderboard

import (
	"sort"

	"github.com/mmynk/runpool/internal/models"
)

// Standing is one member's leaderboard row for a period.
type Standing struct {
	Rank           int
	UserID         string
	DisplayName    string
	Activities     int64
	DistanceMeters int64

	// Paid reports whether the member's entry fee for the period is paid.
	Paid bool
}

// Build ranks a group's members for a period.
//
// Algorithm:
// - Order by distance, then activity count, both descending
// - Members equal on both share a rank and the next rank skips (1, 1, 3)
// - Ties are listed by display name, then user id, so output is stable
func Build(members []models.MemberActivity, statuses map[string]models.PaymentStatus) []Standing {
	standings := make([]Standing, 0, len(members))
	for _, m := range members {
		standings = append(standings, Standing{
			UserID:         m.UserID,
			DisplayName:    m.DisplayName,
			Activities:     m.Activities,
			DistanceMeters: m.DistanceMeters,
			Paid:           statuses[m.UserID] == models.PaymentPaid,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.DistanceMeters != b.DistanceMeters {
			return a.DistanceMeters > b.DistanceMeters
		}
		if a.Activities != b.Activities {
			return a.Activities > b.Activities
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.UserID < b.UserID
	})

	for i := range standings {
		if i > 0 && sameScore(standings[i], standings[i-1]) {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	return standings
}

func sameScore(a, b Standing) bool {
	return a.DistanceMeters == b.DistanceMeters && a.Activities == b.Activities
}

// PaidCount returns how many standings have a paid entry.
func PaidCount(standings []Standing) int {
	n := 0
	for _, s := range standings {
		if s.Paid {
			n++
		}
	}
	return n
}
