package stats

import (
	"math"
	"time"

	"shelterstats/internal/core"
)

// Share is the percentage of a month's known total taken by each category.
type Share struct {
	Dog float64
	Cat float64
}

// ShareRow is one month of a single year with counts and shares.
type ShareRow struct {
	Month  time.Month
	Year   int
	Counts Counts
	Share  Share
}

// ShareOf returns count/total as a percentage rounded to one decimal.
// A zero total yields 0 rather than NaN.
func ShareOf(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// Shares computes the Dog and Cat shares of the known total.
func Shares(c Counts) Share {
	total := c.Total()
	return Share{
		Dog: ShareOf(c[core.Dog], total),
		Cat: ShareOf(c[core.Cat], total),
	}
}

// SharesFor derives the shares of one year of a monthly row. ok is false
// when the year was not part of the comparison.
func (p MonthlyPoint) SharesFor(year int) (Share, bool) {
	c, ok := p.For(year)
	if !ok {
		return Share{}, false
	}
	return Shares(c), true
}

// MonthlyShares flattens a monthly comparison into the twelve share rows of
// a single year.
func MonthlyShares(points []MonthlyPoint, year int) []ShareRow {
	out := make([]ShareRow, 0, len(points))
	for _, p := range points {
		c, _ := p.For(year)
		out = append(out, ShareRow{Month: p.Month, Year: year, Counts: c, Share: Shares(c)})
	}
	return out
}
