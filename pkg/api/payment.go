package api

type InitiatePaymentRequest struct {
	GroupId string `json:"groupId"`

	// PeriodId defaults to the current period.
	PeriodId string `json:"periodId,omitempty"`
}

type InitiatePaymentResponse struct {
	PeriodId     string `json:"periodId"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

type GetPaymentStatusRequest struct {
	GroupId  string `json:"groupId"`
	PeriodId string `json:"periodId,omitempty"`
}

type GetPaymentStatusResponse struct {
	PeriodId string `json:"periodId"`
	Status   string `json:"status"`
}

type StartPayoutOnboardingRequest struct{}

type StartPayoutOnboardingResponse struct {
	Url string `json:"url"`
}
