package backend

import (
	"context"
	"time"

	"shelterstats/internal/sheets"
	"shelterstats/internal/sheets/google"
)

// Reader is a source that can serve both the refresher and the boundary proxy.
type Reader interface {
	sheets.TableReader
	sheets.MatrixReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Sources contains the readers selected by the configuration and an optional
// cleanup function
type Sources struct {
	// Primary is read first on every refresh.
	Primary Reader
	// Fallback is read when Primary fails. Nil when there is none.
	Fallback sheets.TableReader
	// Boundary backs GET /api/sheets.
	Boundary sheets.MatrixReader
	Cleanup  CleanupFunc
}

// Factory creates sources based on configuration
type Factory interface {
	// CreateSources builds the readers for the configured source type
	CreateSources(ctx context.Context, config Config) (*Sources, error)
}

// Config holds configuration for source creation
type Config struct {
	// Source type
	Type SourceType

	// Google Sheets specific
	Google google.Options

	// Remote proxy specific
	ProxyURL string
	Timeout  time.Duration

	// Fallback file, also the primary for the file source
	FallbackFile  string
	FallbackSheet string

	// Memory source specific
	MemorySeedFile string
}

// SourceType represents the type of primary source
type SourceType string

const (
	SheetsSource SourceType = "sheets"
	ProxySource  SourceType = "proxy"
	FileSource   SourceType = "file"
	MemorySource SourceType = "memory"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	switch st {
	case SheetsSource, ProxySource, FileSource, MemorySource:
		return true
	default:
		return false
	}
}
