package sheets

import (
	"context"
	"errors"

	"shelterstats/internal/core"
)

// ErrNoData is returned when a source has a header row but no data rows.
var ErrNoData = errors.New("no data found")

// Ports for inbound tabular sources.
type (
	// TableReader returns the raw rows of a source, first row used as headers.
	TableReader interface {
		ReadTable(ctx context.Context) (core.Table, error)
	}

	// MatrixReader returns the raw cell matrix of a source, header row first.
	MatrixReader interface {
		Values(ctx context.Context) ([][]string, error)
	}

	// Named is implemented by readers that can describe where they read from.
	Named interface {
		Source() string
	}
)

// Failing is a TableReader that always returns Err. It stands in for a source
// whose configuration is incomplete so the process can still start.
type Failing struct {
	Err error
}

func (f Failing) ReadTable(context.Context) (core.Table, error) {
	return core.Table{}, f.Err
}

func (f Failing) Values(context.Context) ([][]string, error) {
	return nil, f.Err
}

func (f Failing) Source() string { return "unconfigured" }

// SourceOf returns the reader's name, "none" for nil, or "unknown".
func SourceOf(r any) string {
	if r == nil {
		return "none"
	}
	if n, ok := r.(Named); ok {
		return n.Source()
	}
	return "unknown"
}
