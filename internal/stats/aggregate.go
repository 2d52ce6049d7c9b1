// Package stats turns adoption records into year-over-year and year-to-date
// series.
//
// Every function here is pure: no I/O, no shared state, input slices are
// never modified, and the result depends only on the arguments. Running time
// is linear in the number of records plus the number of emitted rows.
package stats

import (
	"time"

	"shelterstats/internal/core"
)

// Counts holds one counter per category, indexed by core.Category.
type Counts [len(core.Categories)]int

// Get returns the counter for a category.
func (c Counts) Get(cat core.Category) int {
	return c[cat]
}

// Total is the sum of the known categories. Other is excluded.
func (c Counts) Total() int {
	return c[core.Dog] + c[core.Cat]
}

// All is the sum of every category including Other.
func (c Counts) All() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// YearPoint is one row of a year-to-date or full-year series.
type YearPoint struct {
	Year   int
	Counts Counts
}

// YearCounts is the per-category count of one year inside a monthly row.
type YearCounts struct {
	Year   int
	Counts Counts
}

// MonthlyPoint is one calendar month carrying every requested year.
type MonthlyPoint struct {
	Month time.Month
	Years []YearCounts
}

// For returns the counts of the given year, if it was requested.
func (p MonthlyPoint) For(year int) (Counts, bool) {
	for _, y := range p.Years {
		if y.Year == year {
			return y.Counts, true
		}
	}
	return Counts{}, false
}

// YearToDate counts records per year from January 1st through the (month, day)
// of asOf, for every year in [startYear, asOf.Year()]. The same cutoff is
// applied to every year so the rows compare like for like. A Feb 29 cutoff is
// compared as a raw tuple: in non-leap years it simply behaves like Feb 28.
func YearToDate(records []core.Record, asOf time.Time, startYear int) []YearPoint {
	cutMonth, cutDay := int(asOf.Month()), asOf.Day()
	return countByYear(records, startYear, asOf.Year(), func(d core.Date) bool {
		return d.OnOrBefore(cutMonth, cutDay)
	})
}

// FullYear counts every record per calendar year in [startYear, asOf.Year()].
func FullYear(records []core.Record, asOf time.Time, startYear int) []YearPoint {
	return countByYear(records, startYear, asOf.Year(), nil)
}

func countByYear(records []core.Record, startYear, endYear int, include func(core.Date) bool) []YearPoint {
	if endYear < startYear {
		return []YearPoint{}
	}
	rows := make([]YearPoint, endYear-startYear+1)
	for i := range rows {
		rows[i].Year = startYear + i
	}
	for _, r := range records {
		y := r.Date.Year()
		if y < startYear || y > endYear {
			continue
		}
		if include != nil && !include(r.Date) {
			continue
		}
		rows[y-startYear].Counts[r.Category]++
	}
	return rows
}

// MonthlyComparison builds twelve rows, January to December, each carrying
// the per-category counts of every requested year. Only the listed years are
// considered; records from other years are ignored. Duplicate years are
// collapsed, keeping the first occurrence.
func MonthlyComparison(records []core.Record, years []int) []MonthlyPoint {
	order := make([]int, 0, len(years))
	pos := make(map[int]int, len(years))
	for _, y := range years {
		if _, dup := pos[y]; dup {
			continue
		}
		pos[y] = len(order)
		order = append(order, y)
	}

	rows := make([]MonthlyPoint, 12)
	for m := range rows {
		rows[m].Month = time.Month(m + 1)
		rows[m].Years = make([]YearCounts, len(order))
		for i, y := range order {
			rows[m].Years[i].Year = y
		}
	}
	for _, r := range records {
		i, ok := pos[r.Date.Year()]
		if !ok {
			continue
		}
		rows[r.Date.Month()-1].Years[i].Counts[r.Category]++
	}
	return rows
}
