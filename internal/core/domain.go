package core

import (
	"strings"
	"time"
)

const (
	Dog Category = iota
	Cat
	Other
)

type (
	// Category is the closed set of record labels. Unknown labels land in Other.
	Category int

	Date struct {
		time.Time
	}

	// Record is one adoption event.
	Record struct {
		Date     Date
		Category Category
	}
)

// Categories lists every category in report order.
var Categories = [...]Category{Dog, Cat, Other}

// ParseCategory maps a raw label to a Category. Matching is case-insensitive
// and ignores surrounding whitespace.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dog", "dogs":
		return Dog
	case "cat", "cats":
		return Cat
	default:
		return Other
	}
}

// String returns the label used as a JSON key prefix.
func (c Category) String() string {
	switch c {
	case Dog:
		return "Dog"
	case Cat:
		return "Cat"
	default:
		return "Other"
	}
}

// Known reports whether the category counts towards totals.
func (c Category) Known() bool {
	return c == Dog || c == Cat
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// OnOrBefore compares (month, day) tuples, ignoring the year.
func (d Date) OnOrBefore(month, day int) bool {
	if d.Month() != month {
		return d.Month() < month
	}
	return d.Day() <= day
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}
