package report

import (
	"sort"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

// TagAmount is a tag's summed attributed amount.
type TagAmount struct {
	Tag    string
	Amount decimal.Decimal
}

// TopTags ranks tags by attributed amount, descending, ties in
// first-encountered order. Each record contributes its full amount
// once per tag fragment: tags are independent facets, not a partition,
// so a record tagged "food, travel" counts fully under both, and a
// duplicated fragment counts twice.
func TopTags(records []core.Record, n int) []TagAmount {
	sums := map[string]decimal.Decimal{}
	firstSeen := map[string]int{}
	var order []string

	for _, r := range records {
		for _, tag := range r.TagList() {
			if _, seen := sums[tag]; !seen {
				firstSeen[tag] = len(order)
				order = append(order, tag)
			}
			sums[tag] = sums[tag].Add(r.Amount)
		}
	}

	out := make([]TagAmount, 0, len(order))
	for _, tag := range order {
		out = append(out, TagAmount{Tag: tag, Amount: sums[tag]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return firstSeen[out[i].Tag] < firstSeen[out[j].Tag]
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
