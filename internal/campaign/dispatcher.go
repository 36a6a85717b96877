// Package campaign runs scheduled e-mail campaigns.
//
// A run selects recipients with the campaign's predicate, skips anyone who
// already has a send record for the (campaign, period) pair and records a
// send only after the sender accepted the message. Running the same
// campaign for the same period again therefore only reaches recipients
// that were missed or failed before.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmynk/runpool/internal/keylock"
	"github.com/mmynk/runpool/internal/metrics"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/notify"
	"github.com/mmynk/runpool/internal/period"
	"github.com/mmynk/runpool/internal/storage"
)

// ErrUnknownCampaign is returned for campaign types not in the registry.
var ErrUnknownCampaign = errors.New("unknown campaign type")

// Options tune the dispatcher.
type Options struct {
	// SendTimeout bounds each call to the sender.
	SendTimeout time.Duration

	// Rate is the sustained number of sends per second; Burst the bucket.
	Rate  float64
	Burst int

	// BaseURL prefixes links in messages.
	BaseURL string
}

// DefaultOptions are used for zero fields.
var DefaultOptions = Options{
	SendTimeout: 10 * time.Second,
	Rate:        5,
	Burst:       5,
	BaseURL:     "http://localhost:8080",
}

// Failure is one recipient the run could not reach.
type Failure struct {
	UserID string
	Reason string
}

// Report summarises a run.
type Report struct {
	Campaign string
	Period   string
	Sent     int
	Skipped  int
	Failed   int
	Failures []Failure
}

// Dispatcher executes campaign runs.
type Dispatcher struct {
	registry *Registry
	store    storage.CampaignStore
	sender   notify.Sender
	limiter  *rate.Limiter
	opts     Options
	locks    keylock.Locker
	now      func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(registry *Registry, store storage.CampaignStore, sender notify.Sender, opts Options) *Dispatcher {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultOptions.SendTimeout
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultOptions.Rate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultOptions.Burst
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOptions.BaseURL
	}
	return &Dispatcher{
		registry: registry,
		store:    store,
		sender:   sender,
		limiter:  rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
		opts:     opts,
		now:      time.Now,
	}
}

// Registry returns the campaigns the dispatcher knows.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Run executes one campaign for one period. When ctx is cancelled the run
// stops before the next recipient and returns the partial report along
// with the context error.
func (d *Dispatcher) Run(ctx context.Context, campaignType, periodID string) (*Report, error) {
	c, ok := d.registry.Lookup(campaignType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCampaign, campaignType)
	}
	p, err := period.Parse(periodID)
	if err != nil {
		return nil, err
	}

	unlock, err := d.locks.Lock(ctx, campaignType+"/"+periodID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	var recipients []models.Recipient
	err = storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		recipients, err = c.predicate(ctx, d.store, c.Params, p, d.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select recipients: %w", err)
	}
	recipients = dedupe(recipients)

	slog.Info("Campaign run started",
		"campaign", campaignType,
		"period", periodID,
		"recipients", len(recipients),
	)

	report := &Report{Campaign: campaignType, Period: periodID}
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			slog.Warn("Campaign run cancelled", "campaign", campaignType, "period", periodID, "error", err)
			return report, err
		}

		outcome, err := d.deliver(ctx, c, r, p)
		switch outcome {
		case "sent":
			report.Sent++
		case "skipped":
			report.Skipped++
		default:
			report.Failed++
			report.Failures = append(report.Failures, Failure{UserID: r.UserID, Reason: err.Error()})
		}
		metrics.RecordCampaignSend(campaignType, outcome)
	}

	slog.Info("Campaign run finished",
		"campaign", campaignType,
		"period", periodID,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, c *Campaign, r models.Recipient, p period.ID) (string, error) {
	var sent bool
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		sent, err = d.store.HasSendRecord(ctx, r.UserID, c.Type, p.String())
		return err
	})
	if err != nil {
		return "failed", fmt.Errorf("failed to check send record: %w", err)
	}
	if sent {
		return "skipped", nil
	}

	msg, err := c.render(newMessageData(r, p.String(), d.opts.BaseURL))
	if err != nil {
		return "failed", fmt.Errorf("failed to render message: %w", err)
	}
	msg.To = r.Email
	msg.ToName = r.DisplayName

	if err := d.limiter.Wait(ctx); err != nil {
		return "failed", err
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	messageID, err := d.sender.Send(sendCtx, msg)
	cancel()
	if err != nil {
		slog.Warn("Campaign send failed", "campaign", c.Type, "user_id", r.UserID, "error", err)
		return "failed", err
	}

	record := &models.CampaignSendRecord{
		UserID:       r.UserID,
		CampaignType: c.Type,
		PeriodID:     p.String(),
		MessageID:    messageID,
		SentAt:       d.now().Unix(),
	}
	// Recording a send is idempotent: a conflict means it is recorded.
	err = storage.Retry(ctx, storage.DefaultRetry, func() error {
		return d.store.CreateSendRecord(ctx, record)
	})
	switch {
	case errors.Is(err, storage.ErrConflict):
		slog.Warn("Send record already existed", "campaign", c.Type, "user_id", r.UserID, "period", p)
	case err != nil:
		// The message is out; without the record the next run may repeat it.
		slog.Error("Failed to record campaign send",
			"campaign", c.Type,
			"user_id", r.UserID,
			"message_id", messageID,
			"error", err,
		)
	}
	return "sent", nil
}

// dedupe keeps the first row of each user.
func dedupe(recipients []models.Recipient) []models.Recipient {
	seen := make(map[string]bool, len(recipients))
	out := recipients[:0]
	for _, r := range recipients {
		if seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		out = append(out, r)
	}
	return out
}
