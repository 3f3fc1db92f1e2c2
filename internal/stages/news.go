package stages

import (
	"context"
	"fmt"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/progress"
	"github.com/aristath/commodities/internal/workers"
)

// News collects recent headlines for each instrument
type News struct {
	source       domain.NewsSource
	sources      []string
	maxPerSource int
}

// NewNews creates the news stage
func NewNews(source domain.NewsSource, sources []string, maxPerSource int) *News {
	return &News{source: source, sources: sources, maxPerSource: maxPerSource}
}

// Run searches news for every instrument by its display name
func (s *News) Run(ctx context.Context, pool *workers.Pool, instruments []domain.Instrument, reporter progress.Reporter) (map[string][]domain.NewsItem, error) {
	return workers.Fan(ctx, pool, StageNews, instruments, instrumentKey, s.search,
		progress.ItemCallback(reporter, StageNews))
}

func (s *News) search(ctx context.Context, inst domain.Instrument) ([]domain.NewsItem, error) {
	keyword := inst.Name
	if keyword == "" {
		keyword = inst.ID
	}

	items, err := s.source.News(ctx, keyword, s.sources, s.maxPerSource)
	if err != nil {
		return nil, fmt.Errorf("failed to search news for %q: %w", keyword, err)
	}
	if items == nil {
		items = []domain.NewsItem{}
	}
	return items, nil
}
