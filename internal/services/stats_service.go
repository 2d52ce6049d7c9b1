package services

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"shelterstats/internal/cache"
	applog "shelterstats/internal/log"
	"shelterstats/internal/stats"
)

// StatsConfig holds the defaults applied to stats queries.
type StatsConfig struct {
	// StartYear is the first year of YTD and full-year series.
	StartYear int
	// Location fixes the calendar used to read "today".
	Location *time.Location
	CacheSize int
	CacheTTL  time.Duration
}

// Meta describes the dataset a result was computed from.
type Meta struct {
	Status   LoadStatus
	Version  uint64
	Records  int
	LoadedAt time.Time
}

// StatsService computes stats over the current dataset and memoizes results
// per dataset version and parameters.
type StatsService struct {
	src       DatasetSource
	startYear int
	loc       *time.Location
	now       func() time.Time

	years   *cache.LRUCache[[]stats.YearPoint]
	monthly *cache.LRUCache[[]stats.MonthlyPoint]

	mu          sync.Mutex
	seenVersion uint64
}

// NewStatsService creates a stats service reading from src.
func NewStatsService(src DatasetSource, cfg StatsConfig) *StatsService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	return &StatsService{
		src:       src,
		startYear: cfg.StartYear,
		loc:       cfg.Location,
		now:       time.Now,
		years:     cache.NewLRUCache[[]stats.YearPoint](cfg.CacheSize, cfg.CacheTTL),
		monthly:   cache.NewLRUCache[[]stats.MonthlyPoint](cfg.CacheSize, cfg.CacheTTL),
	}
}

// Caches returns the memo caches so they can be registered for cleanup.
func (s *StatsService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.years, s.monthly}
}

// CacheStats sums hits and misses over every memo cache.
func (s *StatsService) CacheStats() (hits, misses uint64) {
	h1, m1 := s.years.Stats()
	h2, m2 := s.monthly.Stats()
	return h1 + h2, m1 + m2
}

// Today returns the current date in the configured location.
func (s *StatsService) Today() time.Time {
	return s.now().In(s.loc)
}

// DefaultStartYear is the configured first year of year series.
func (s *StatsService) DefaultStartYear() int {
	return s.startYear
}

// Location is the calendar used for "today".
func (s *StatsService) Location() *time.Location {
	return s.loc
}

// current returns the dataset and drops memoized results of older versions.
func (s *StatsService) current() (*Dataset, Meta) {
	ds := s.src.Current()
	if ds == nil {
		return &Dataset{}, Meta{Status: Unavailable}
	}

	s.mu.Lock()
	if ds.Version != s.seenVersion {
		s.seenVersion = ds.Version
		s.mu.Unlock()
		n := s.years.Purge() + s.monthly.Purge()
		if n > 0 {
			slog.Debug("Stats cache purged for new dataset", applog.FieldComponent, applog.ComponentCache, "version", ds.Version, "entries", n)
		}
	} else {
		s.mu.Unlock()
	}

	return ds, Meta{Status: ds.Status, Version: ds.Version, Records: len(ds.Records), LoadedAt: ds.LoadedAt}
}

func memo[T any](c *cache.LRUCache[T], key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

// YearToDate returns the YTD series through asOf. A zero asOf means today,
// a zero startYear means the configured default.
func (s *StatsService) YearToDate(asOf time.Time, startYear int) ([]stats.YearPoint, Meta) {
	asOf, startYear = s.window(asOf, startYear)
	ds, meta := s.current()
	key := fmt.Sprintf("v%d|ytd|%s|%d", meta.Version, asOf.Format(time.DateOnly), startYear)
	return memo(s.years, key, func() []stats.YearPoint {
		return stats.YearToDate(ds.Records, asOf, startYear)
	}), meta
}

// FullYear returns calendar-year totals through the year of asOf.
func (s *StatsService) FullYear(asOf time.Time, startYear int) ([]stats.YearPoint, Meta) {
	asOf, startYear = s.window(asOf, startYear)
	ds, meta := s.current()
	key := fmt.Sprintf("v%d|full|%d|%d", meta.Version, asOf.Year(), startYear)
	return memo(s.years, key, func() []stats.YearPoint {
		return stats.FullYear(ds.Records, asOf, startYear)
	}), meta
}

// Monthly returns the twelve-row comparison of the given years. No years
// means the previous and the current year.
func (s *StatsService) Monthly(years []int) ([]stats.MonthlyPoint, Meta) {
	if len(years) == 0 {
		y := s.Today().Year()
		years = []int{y - 1, y}
	}
	ds, meta := s.current()
	key := fmt.Sprintf("v%d|monthly|%s", meta.Version, joinInts(years))
	return memo(s.monthly, key, func() []stats.MonthlyPoint {
		return stats.MonthlyComparison(ds.Records, years)
	}), meta
}

// Shares returns the monthly Dog/Cat shares of one year. Zero means the
// current year.
func (s *StatsService) Shares(year int) ([]stats.ShareRow, Meta) {
	if year == 0 {
		year = s.Today().Year()
	}
	points, meta := s.Monthly([]int{year})
	return stats.MonthlyShares(points, year), meta
}

func (s *StatsService) window(asOf time.Time, startYear int) (time.Time, int) {
	if asOf.IsZero() {
		asOf = s.Today()
	}
	if startYear == 0 {
		startYear = s.startYear
	}
	return asOf, startYear
}

func joinInts(in []int) string {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
