package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shelterstats/internal/sheets"
	"shelterstats/internal/sheets/file"
	"shelterstats/internal/sheets/google"
	"shelterstats/internal/sheets/memory"
	"shelterstats/internal/sheets/proxy"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger

	// newGoogle is replaced in tests.
	newGoogle func(ctx context.Context, opts google.Options) (Reader, error)
}

// NewFactory creates a new source factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		newGoogle: func(ctx context.Context, opts google.Options) (Reader, error) {
			return google.New(ctx, opts)
		},
	}
}

// CreateSources implements Factory.CreateSources
func (f *DefaultFactory) CreateSources(ctx context.Context, config Config) (*Sources, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Sources
		err error
	)
	switch config.Type {
	case SheetsSource:
		res = f.createSheetsSources(ctx, config)
	case ProxySource:
		res = f.createProxySources(config)
	case FileSource:
		res = f.createFileSources(config)
	case MemorySource:
		res = f.createMemorySources(config)
	default:
		err = fmt.Errorf("unsupported source type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Type != FileSource && strings.TrimSpace(config.FallbackFile) != "" {
		res.Fallback = file.New(config.FallbackFile, config.FallbackSheet)
	}

	f.logger.Info("Initialized record sources",
		"type", config.Type,
		"primary", sheets.SourceOf(res.Primary),
		"fallback", sheets.SourceOf(res.Fallback),
		"boundary", sheets.SourceOf(res.Boundary))
	return res, nil
}

// createSheetsSources never fails: a missing spreadsheet id or credential is
// reported on every read so the service can still start and serve fallback
// data.
func (f *DefaultFactory) createSheetsSources(ctx context.Context, config Config) *Sources {
	cli, err := f.newGoogle(ctx, config.Google)
	if err != nil {
		f.logger.Warn("Google Sheets source unavailable, reads will fail until configured", "error", err)
		failing := sheets.Failing{Err: err}
		return &Sources{Primary: failing, Boundary: failing}
	}

	f.logger.Info("Initialized Google Sheets source")
	return &Sources{Primary: cli, Boundary: cli}
}

func (f *DefaultFactory) createProxySources(config Config) *Sources {
	cli, err := proxy.New(config.ProxyURL, nil, config.Timeout)
	if err != nil {
		f.logger.Warn("Sheets proxy source unavailable, reads will fail until configured", "error", err)
		failing := sheets.Failing{Err: err}
		return &Sources{Primary: failing, Boundary: failing}
	}

	f.logger.Info("Initialized sheets proxy source")
	return &Sources{Primary: cli, Boundary: cli, Cleanup: cli.Close}
}

func (f *DefaultFactory) createFileSources(config Config) *Sources {
	r := file.New(config.FallbackFile, config.FallbackSheet)

	f.logger.Info("Initialized file source", "path", config.FallbackFile, "sheet", config.FallbackSheet)
	return &Sources{Primary: r, Boundary: r}
}

func (f *DefaultFactory) createMemorySources(config Config) *Sources {
	store := memory.NewFromFile(config.MemorySeedFile)

	f.logger.Info("Initialized memory source", "seed_file", config.MemorySeedFile)
	return &Sources{Primary: store, Boundary: store}
}
