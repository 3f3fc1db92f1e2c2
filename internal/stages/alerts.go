package stages

import (
	"context"
	"fmt"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/progress"
	"github.com/aristath/commodities/internal/workers"
)

const mailboxKey = "mailbox"

// Alerts matches today's alert emails against the candidate instruments
type Alerts struct {
	mailbox domain.AlertMailbox
}

// NewAlerts creates the alerts stage
func NewAlerts(mailbox domain.AlertMailbox) *Alerts {
	return &Alerts{mailbox: mailbox}
}

// Run fetches the mailbox once and returns the alerts that mention each instrument by name.
// Instruments without a matching alert are absent from the result.
func (s *Alerts) Run(ctx context.Context, pool *workers.Pool, instruments []domain.Instrument, reporter progress.Reporter) (map[string][]domain.NewsItem, error) {
	fetched, err := workers.Fan(ctx, pool, StageAlerts, []string{mailboxKey},
		func(k string) string { return k },
		func(ctx context.Context, _ string) ([]domain.NewsItem, error) {
			alerts, err := s.mailbox.Alerts(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read alerts: %w", err)
			}
			return alerts, nil
		},
		progress.ItemCallback(reporter, StageAlerts))
	if err != nil {
		return nil, err
	}

	return matchAlerts(fetched[mailboxKey], instruments), nil
}

func matchAlerts(alerts []domain.NewsItem, instruments []domain.Instrument) map[string][]domain.NewsItem {
	matched := make(map[string][]domain.NewsItem)
	for _, alert := range alerts {
		for _, inst := range instruments {
			if alert.Mentions(inst.Name) {
				matched[inst.ID] = append(matched[inst.ID], alert)
			}
		}
	}
	return matched
}
