package skills

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/commodities/internal/domain"
)

const (
	scraperSkill = "scraper"
	gmailSkill   = "gmail"
)

type newsRow struct {
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Snippet   string `json:"snippet"`
	Sentiment string `json:"sentiment"`
}

// Scraper searches financial news sites through the scraper skill.
// It implements domain.NewsSource.
type Scraper struct {
	runner *Runner
	now    func() time.Time
}

// NewScraper creates the news adapter
func NewScraper(runner *Runner) *Scraper {
	return &Scraper{runner: runner, now: time.Now}
}

// News returns up to maxPerSource items per source mentioning keyword
func (s *Scraper) News(ctx context.Context, keyword string, sources []string, maxPerSource int) ([]domain.NewsItem, error) {
	args := []string{
		"--keyword", keyword,
		"--sources", strings.Join(sources, ","),
		"--max", strconv.Itoa(maxPerSource),
		"--json",
	}

	var rows []newsRow
	if err := s.runner.RunJSON(ctx, scraperSkill, "news", args, &rows); err != nil {
		return nil, err
	}

	today := domain.DateOf(s.now())
	items := make([]domain.NewsItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, domain.NewsItem{
			Title:     r.Title,
			Source:    r.Source,
			URL:       r.URL,
			Published: parsePublished(r.Published, today),
			Summary:   r.Summary,
			Sentiment: parseSentiment(r.Sentiment),
		})
	}
	return items, nil
}

// Mailbox reads today's alert emails through the gmail skill.
// It implements domain.AlertMailbox.
type Mailbox struct {
	runner *Runner
	query  string
	now    func() time.Time
}

// NewMailbox creates the alerts adapter for the given search query
func NewMailbox(runner *Runner, query string) *Mailbox {
	return &Mailbox{runner: runner, query: query, now: time.Now}
}

// Alerts returns today's matching emails as news items
func (m *Mailbox) Alerts(ctx context.Context) ([]domain.NewsItem, error) {
	var rows []newsRow
	args := []string{"--query", m.query, "--today", "--json"}
	if err := m.runner.RunJSON(ctx, gmailSkill, "search", args, &rows); err != nil {
		return nil, err
	}

	today := domain.DateOf(m.now())
	items := make([]domain.NewsItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, domain.NewsItem{
			Title:     firstNonEmpty(r.Title, r.Subject),
			Source:    "gmail",
			URL:       r.URL,
			Published: parsePublished(r.Published, today),
			Summary:   firstNonEmpty(r.Summary, r.Snippet),
			Sentiment: parseSentiment(r.Sentiment),
		})
	}
	return items, nil
}
