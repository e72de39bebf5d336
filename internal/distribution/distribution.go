// Package distribution keeps the percentage split across selected missions
// summing to exactly 100.
//
// Two rules decide where rounding slack lands:
//   - EqualSplit gives the remainder of 100/n to the first mission.
//   - RebalanceOnDrag gives whatever is left after proportional scaling to the
//     last of the untouched missions, in selection order.
package distribution

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"donation-flow/internal/model"
)

// Total is the sum every non-empty distribution must reach.
const Total = 100

// Bounds for a percent typed in by hand.
const (
	MinManualPercent = 5
	MaxManualPercent = 95
)

// EqualSplit gives each mission floor(100/n) and the first one the remainder.
// An empty selection yields an empty, non-nil distribution.
func EqualSplit(missions []model.MissionSlug) model.Distribution {
	dist := make(model.Distribution, len(missions))
	if len(missions) == 0 {
		return dist
	}

	base := Total / len(missions)
	remainder := Total % len(missions)
	for i, slug := range missions {
		dist[slug] = base
		if i == 0 {
			dist[slug] += remainder
		}
	}
	return dist
}

// Adjustable reports whether a selection has anything to rebalance against.
func Adjustable(selected []model.MissionSlug) bool {
	return len(selected) > 1
}

// RebalanceOnDrag sets changed to newValue and spreads the rest across the
// other selected missions in proportion to their current shares.
//
// When the others currently hold nothing, the rest is split evenly with the
// first of them taking the remainder. Otherwise each other mission but the
// last gets round(share/othersTotal*remaining), capped so the running total
// never passes remaining, and the last gets exactly what is left.
//
// A changed mission that is not selected, or a selection with no other
// missions, leaves the distribution as it is.
func RebalanceOnDrag(selected []model.MissionSlug, current model.Distribution, changed model.MissionSlug, newValue int) model.Distribution {
	next := current.Clone()
	if !slices.Contains(selected, changed) {
		return next
	}

	others := make([]model.MissionSlug, 0, len(selected)-1)
	for _, slug := range selected {
		if slug != changed {
			others = append(others, slug)
		}
	}
	if len(others) == 0 {
		return next
	}

	newValue = min(max(newValue, 0), Total)
	remaining := Total - newValue
	next[changed] = newValue

	othersTotal := 0
	for _, slug := range others {
		othersTotal += current[slug]
	}

	if othersTotal == 0 {
		per := remaining / len(others)
		for i, slug := range others {
			next[slug] = per
			if i == 0 {
				next[slug] = remaining - per*(len(others)-1)
			}
		}
		return next
	}

	distributed := 0
	last := len(others) - 1
	for _, slug := range others[:last] {
		share := int(math.Round(float64(current[slug]) / float64(othersTotal) * float64(remaining)))
		share = min(max(share, 0), remaining-distributed)
		next[slug] = share
		distributed += share
	}
	next[others[last]] = max(0, remaining-distributed)
	return next
}

// ParsePercent reads the leading integer of a hand-typed percent and clamps
// it to the manual bounds, so "40abc" reads as 40 and "12.5" as 12. ok is
// false when the text does not start with a number.
func ParsePercent(text string) (percent int, ok bool) {
	s := strings.TrimSpace(text)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// Out of int range; the sign decides which bound applies.
		if s[0] == '-' {
			return MinManualPercent, true
		}
		return MaxManualPercent, true
	}
	return min(max(v, MinManualPercent), MaxManualPercent), true
}

// ManualPercentEdit applies a hand-typed percent for changed. Unparseable
// text leaves the distribution untouched and reports false.
func ManualPercentEdit(selected []model.MissionSlug, current model.Distribution, changed model.MissionSlug, text string) (model.Distribution, bool) {
	percent, ok := ParsePercent(text)
	if !ok {
		return current.Clone(), false
	}
	return RebalanceOnDrag(selected, current, changed, percent), true
}
