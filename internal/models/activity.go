package models

// ActivityKind is the sport of a logged activity.
type ActivityKind string

const (
	ActivityRun  ActivityKind = "run"
	ActivityWalk ActivityKind = "walk"
	ActivityRide ActivityKind = "ride"
)

// Valid reports whether k is a known activity kind.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityRun, ActivityWalk, ActivityRide:
		return true
	}
	return false
}

// Activity is a single workout logged by a user.
type Activity struct {
	ID     string       `db:"id"`
	UserID string       `db:"user_id"`
	Kind   ActivityKind `db:"kind"`

	// DistanceMeters is the covered distance in metres.
	DistanceMeters int64 `db:"distance_m"`

	// DurationSeconds is the moving time.
	DurationSeconds int64 `db:"duration_s"`

	// OccurredAt is the Unix timestamp the activity started.
	OccurredAt int64 `db:"occurred_at"`
	CreatedAt  int64 `db:"created_at"`
}

// MemberActivity aggregates one member's activities over a period.
type MemberActivity struct {
	UserID         string `db:"user_id"`
	DisplayName    string `db:"display_name"`
	Activities     int64  `db:"activities"`
	DistanceMeters int64  `db:"distance_m"`
}
