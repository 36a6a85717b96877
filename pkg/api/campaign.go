package api

type RunCampaignRequest struct {
	CampaignType string `json:"campaignType"`

	// PeriodId defaults to the current period.
	PeriodId string `json:"periodId,omitempty"`
}

type CampaignFailure struct {
	UserId string `json:"userId"`
	Reason string `json:"reason"`
}

type RunCampaignResponse struct {
	CampaignType string             `json:"campaignType"`
	PeriodId     string             `json:"periodId"`
	Sent         int                `json:"sent"`
	Skipped      int                `json:"skipped"`
	Failed       int                `json:"failed"`
	Failures     []*CampaignFailure `json:"failures,omitempty"`
}

type ListCampaignsRequest struct{}

type Campaign struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Predicate   string `json:"predicate"`
}

type ListCampaignsResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
}
