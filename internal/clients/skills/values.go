package skills

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/commodities/internal/domain"
)

// number accepts a JSON number, a numeric string, or null
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" || s == "-" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// parsePublished reads a publish date, falling back to the given day when unreadable
func parsePublished(raw string, fallback domain.Date) domain.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if d, err := domain.ParseDate(raw); err == nil {
		return d
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return domain.DateOf(t)
	}
	if len(raw) >= len(domain.DateLayout) {
		if d, err := domain.ParseDate(raw[:len(domain.DateLayout)]); err == nil {
			return d
		}
	}
	return fallback
}

func parseSentiment(raw string) domain.Sentiment {
	switch domain.Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.SentimentPositive:
		return domain.SentimentPositive
	case domain.SentimentNegative:
		return domain.SentimentNegative
	case domain.SentimentNeutral:
		return domain.SentimentNeutral
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// rawObject keeps unknown keys, used where field names carry data
type rawObject map[string]json.RawMessage

func (o rawObject) str(key string) string {
	var s string
	if raw, ok := o[key]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			return strings.Trim(string(raw), `"`)
		}
	}
	return s
}

func (o rawObject) num(key string) (float64, error) {
	var n number
	if raw, ok := o[key]; ok {
		if err := n.UnmarshalJSON(raw); err != nil {
			return 0, err
		}
	}
	return float64(n), nil
}
