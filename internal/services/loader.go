package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shelterstats/internal/core"
	"shelterstats/internal/sheets"
)

// LoadResult is the outcome of one two-stage load.
type LoadResult struct {
	Status  LoadStatus
	Records []core.Record
	Dropped int
	Source  string
	// Err is the primary failure for FellBackToFile, or both failures
	// joined for Unavailable.
	Err error
}

// Loader reads records from a primary source and falls back to a second one
// when the first fails.
type Loader struct {
	primary  sheets.TableReader
	fallback sheets.TableReader
	fields   core.FieldMap
}

// NewLoader creates a loader. Either source may be nil.
func NewLoader(primary, fallback sheets.TableReader, fields core.FieldMap) *Loader {
	if fields.Date == "" || fields.Category == "" {
		def := core.DefaultFieldMap()
		if fields.Date == "" {
			fields.Date = def.Date
		}
		if fields.Category == "" {
			fields.Category = def.Category
		}
	}
	return &Loader{primary: primary, fallback: fallback, fields: fields}
}

var errNoSource = errors.New("no source configured")

// Load tries the primary source, then the fallback.
func (l *Loader) Load(ctx context.Context) LoadResult {
	primaryErr := errNoSource
	if l.primary != nil {
		table, err := l.primary.ReadTable(ctx)
		if err == nil {
			return l.result(Fetched, sheets.SourceOf(l.primary), table, nil)
		}
		primaryErr = fmt.Errorf("primary %s: %w", sheets.SourceOf(l.primary), err)
		slog.WarnContext(ctx, "Primary source failed, trying fallback",
			"component", "sheets", "source", sheets.SourceOf(l.primary), "error", err)
	}

	if ctx.Err() != nil {
		return LoadResult{Status: Unavailable, Err: errors.Join(primaryErr, ctx.Err())}
	}

	fallbackErr := errNoSource
	if l.fallback != nil {
		table, err := l.fallback.ReadTable(ctx)
		if err == nil {
			return l.result(FellBackToFile, sheets.SourceOf(l.fallback), table, primaryErr)
		}
		fallbackErr = fmt.Errorf("fallback %s: %w", sheets.SourceOf(l.fallback), err)
	}

	return LoadResult{Status: Unavailable, Err: errors.Join(primaryErr, fallbackErr)}
}

func (l *Loader) result(status LoadStatus, source string, table core.Table, cause error) LoadResult {
	res := core.ParseRecords(table, l.fields)
	return LoadResult{
		Status:  status,
		Records: res.Records,
		Dropped: res.Dropped,
		Source:  source,
		Err:     cause,
	}
}
