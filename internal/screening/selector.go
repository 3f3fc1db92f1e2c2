// Package screening picks the candidate instruments for a discovery run.
package screening

import (
	"sort"

	"github.com/aristath/commodities/internal/domain"
)

// Select returns the top and bottom topN movers for every lookback period,
// deduplicated by instrument id and kept in universe order.
//
// Ties keep their input order. An empty universe yields an empty result.
func Select(all []domain.Instrument, topN int, periods []int) []domain.Instrument {
	if len(all) == 0 || topN <= 0 {
		return []domain.Instrument{}
	}

	picked := make(map[string]bool)
	for _, period := range periods {
		order := rankByChange(all, period)

		head := topN
		if head > len(order) {
			head = len(order)
		}
		for _, idx := range order[:head] {
			picked[all[idx].ID] = true
		}
		for _, idx := range order[len(order)-head:] {
			picked[all[idx].ID] = true
		}
	}

	selected := make([]domain.Instrument, 0, len(picked))
	seen := make(map[string]bool, len(picked))
	for _, inst := range all {
		if picked[inst.ID] && !seen[inst.ID] {
			seen[inst.ID] = true
			selected = append(selected, inst)
		}
	}

	return selected
}

// rankByChange returns universe indexes sorted by descending change over period
func rankByChange(all []domain.Instrument, period int) []int {
	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return all[order[a]].Change(period) > all[order[b]].Change(period)
	})
	return order
}
