package campaign

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/notify"
)

// messageData is what campaign templates can reference.
type messageData struct {
	Name       string
	Group      string
	Period     string
	Amount     string
	Activities int64
	Link       string
}

var sampleData = messageData{
	Name:       "Sam",
	Group:      "Tuesday Trail Crew",
	Period:     "2026-W42",
	Amount:     "10.00 USD",
	Activities: 3,
	Link:       "https://runpool.app/groups/example",
}

func newMessageData(r models.Recipient, periodID, baseURL string) messageData {
	return messageData{
		Name:       r.DisplayName,
		Group:      r.GroupName,
		Period:     periodID,
		Amount:     FormatAmount(r.Amount, r.Currency),
		Activities: r.Activities,
		Link:       strings.TrimRight(baseURL, "/") + "/groups/" + r.GroupID,
	}
}

func (c *Campaign) render(data messageData) (notify.Message, error) {
	var subject, text, html strings.Builder
	if err := c.subject.Execute(&subject, data); err != nil {
		return notify.Message{}, fmt.Errorf("subject: %w", err)
	}
	if err := c.text.Execute(&text, data); err != nil {
		return notify.Message{}, fmt.Errorf("text: %w", err)
	}
	if c.html != nil {
		if err := c.html.Execute(&html, data); err != nil {
			return notify.Message{}, fmt.Errorf("html: %w", err)
		}
	}
	return notify.Message{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// zeroDecimal lists currencies without minor units.
var zeroDecimal = map[string]bool{"jpy": true, "krw": true, "vnd": true, "clp": true}

// FormatAmount renders minor currency units for people, e.g. 1050 usd as
// "10.50 USD".
func FormatAmount(minor int64, currency string) string {
	code := strings.ToUpper(currency)
	if zeroDecimal[strings.ToLower(currency)] {
		return decimal.NewFromInt(minor).String() + " " + code
	}
	return decimal.New(minor, -2).StringFixed(2) + " " + code
}
