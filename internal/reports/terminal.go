package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B50FF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#858392"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DFDBDD"))
	bullishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFB2"))
	bearishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E94090"))
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD300"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4D4C57")).
			Padding(0, 1)
)

// Render formats a short terminal summary of the envelope
func Render(env pipeline.Envelope) string {
	var body string
	switch {
	case env.Discovery != nil:
		body = renderDiscovery(env.Discovery)
	case env.Review != nil:
		body = renderReview(env.Review)
	default:
		body = mutedStyle.Render("empty report")
	}

	title := titleStyle.Render(strings.ToUpper(env.Mode)) + " " +
		mutedStyle.Render(fmt.Sprintf("%s  %s", env.ID, env.CreatedAt.Format("2006-01-02 15:04:05")))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func renderDiscovery(r *pipeline.DiscoveryReport) string {
	lines := []string{
		mutedStyle.Render(fmt.Sprintf("%d candidates from %d instruments", len(r.Candidates), r.UniverseSize)),
	}
	if len(r.Candidates) == 0 {
		return lines[0]
	}

	lines = append(lines, "", row(headerStyle, "INSTRUMENT", "PRICE", "TREND", "TOP STRATEGY"))
	for _, inst := range r.Candidates {
		tech, ok := r.Analysis.Technical[inst.ID]
		trend := domain.TrendNeutral
		if ok {
			trend = tech.Trend
		}
		top := "-"
		if s := r.Strategies[inst.ID]; len(s) > 0 {
			top = fmt.Sprintf("%s (%d/10)", s[0].Name, s[0].Confidence)
		}
		lines = append(lines, row(lipgloss.NewStyle(),
			fmt.Sprintf("%s %s", inst.ID, inst.Name),
			fmt.Sprintf("%.2f", inst.Price),
			trendStyle(trend).Render(string(trend)),
			top,
		))
	}

	if alerts := countItems(r.Analysis.Alerts); alerts > 0 {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("%d matching alerts", alerts)))
	}
	return strings.Join(lines, "\n")
}

func renderReview(r *pipeline.ReviewReport) string {
	summary := r.Summary()
	lines := []string{
		mutedStyle.Render(fmt.Sprintf("%d positions: %d hold, %d adjust, %d close",
			len(r.Results),
			summary[domain.RecommendHold],
			summary[domain.RecommendAdjust],
			summary[domain.RecommendClose])),
		"",
		row(headerStyle, "POSITION", "SCORE", "SIGNAL", "ACTION"),
	}

	for _, res := range r.Results {
		lines = append(lines, row(lipgloss.NewStyle(),
			res.PositionID,
			fmt.Sprintf("%.1f", res.Overall),
			trendStyle(res.Signal).Render(string(res.Signal)),
			recommendationStyle(res.Recommendation).Render(string(res.Recommendation)),
		))
	}

	if len(r.Unresolved) > 0 {
		unresolved := append([]string(nil), r.Unresolved...)
		sort.Strings(unresolved)
		lines = append(lines, "", mutedStyle.Render("not in snapshot: "+strings.Join(unresolved, ", ")))
	}
	return strings.Join(lines, "\n")
}

func row(style lipgloss.Style, cols ...string) string {
	widths := []int{22, 10, 10, 0}
	cells := make([]string, len(cols))
	for i, c := range cols {
		cell := style.Render(c)
		if i < len(widths) && widths[i] > 0 {
			cell = lipgloss.NewStyle().Width(widths[i]).Render(cell)
		}
		cells[i] = cell
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func trendStyle(t domain.Trend) lipgloss.Style {
	switch t {
	case domain.TrendBullish:
		return bullishStyle
	case domain.TrendBearish:
		return bearishStyle
	default:
		return neutralStyle
	}
}

func recommendationStyle(r domain.Recommendation) lipgloss.Style {
	switch r {
	case domain.RecommendHold:
		return bullishStyle
	case domain.RecommendClose:
		return bearishStyle
	default:
		return neutralStyle
	}
}

func countItems(m map[string][]domain.NewsItem) int {
	n := 0
	for _, items := range m {
		n += len(items)
	}
	return n
}
