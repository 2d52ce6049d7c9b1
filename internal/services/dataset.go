package services

import (
	"time"

	"shelterstats/internal/core"
)

// LoadStatus tells fresh data apart from fallback or stale data.
type LoadStatus int

const (
	// Unavailable means neither source could be read.
	Unavailable LoadStatus = iota
	// Fetched means the primary (remote) source answered.
	Fetched
	// FellBackToFile means the primary failed and the local file was used.
	FellBackToFile
)

func (s LoadStatus) String() string {
	switch s {
	case Fetched:
		return "fetched"
	case FellBackToFile:
		return "fallback"
	default:
		return "unavailable"
	}
}

// Dataset is one published generation of records. It is immutable once
// published; a refresh replaces it wholesale.
type Dataset struct {
	Version  uint64
	Records  []core.Record
	Dropped  int
	Source   string
	LoadedAt time.Time

	// Status of the most recent load. When it is Unavailable the records
	// come from the last successful load and LastError explains why.
	Status    LoadStatus
	LastError string
	CheckedAt time.Time
}

// Stale reports whether the dataset is older than the last load attempt.
func (d *Dataset) Stale() bool {
	return d == nil || d.Status != Fetched
}

// DatasetSource exposes the current dataset. Current may return nil before
// the first load.
type DatasetSource interface {
	Current() *Dataset
}
