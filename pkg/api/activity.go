package api

type Activity struct {
	Id              string `json:"id"`
	Kind            string `json:"kind"`
	DistanceMeters  int64  `json:"distanceMeters"`
	DurationSeconds int64  `json:"durationSeconds"`
	OccurredAt      int64  `json:"occurredAt"`
}

type LogActivityRequest struct {
	Kind            string `json:"kind"`
	DistanceMeters  int64  `json:"distanceMeters"`
	DurationSeconds int64  `json:"durationSeconds"`

	// OccurredAt defaults to now.
	OccurredAt int64 `json:"occurredAt,omitempty"`
}

type LogActivityResponse struct {
	Activity *Activity `json:"activity"`
}

type Standing struct {
	Rank           int    `json:"rank"`
	UserId         string `json:"userId"`
	DisplayName    string `json:"displayName"`
	Activities     int64  `json:"activities"`
	DistanceMeters int64  `json:"distanceMeters"`
	Paid           bool   `json:"paid"`
}

type GetLeaderboardRequest struct {
	GroupId string `json:"groupId"`

	// PeriodId defaults to the current period.
	PeriodId string `json:"periodId,omitempty"`
}

type GetLeaderboardResponse struct {
	PeriodId  string      `json:"periodId"`
	Standings []*Standing `json:"standings"`
	PaidCount int         `json:"paidCount"`
}
