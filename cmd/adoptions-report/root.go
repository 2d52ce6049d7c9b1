package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelterstats/internal/core"
	"shelterstats/internal/sheets/file"
)

// reportOptions are the flags shared by every report.
type reportOptions struct {
	file          string
	sheet         string
	dateField     string
	categoryField string
	asJSON        bool
}

func newRootCmd() *cobra.Command {
	opts := &reportOptions{}
	def := core.DefaultFieldMap()

	root := &cobra.Command{
		Use:   "adoptions-report",
		Short: "Print adoption statistics from a CSV or XLSX export",
		Long: `adoptions-report computes the dashboard series offline from an export
of the adoptions sheet.

Examples:
  adoptions-report ytd --file data/adoptions.csv --as-of 2025-04-15
  adoptions-report monthly --years 2024,2025
  adoptions-report shares --year 2025 --json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.file, "file", envOr("FALLBACK_FILE", "data/adoptions.csv"), "CSV or XLSX export to read")
	pf.StringVar(&opts.sheet, "sheet", os.Getenv("FALLBACK_SHEET"), "Worksheet of an XLSX workbook (default: first)")
	pf.StringVar(&opts.dateField, "date-field", envOr("DATE_FIELD", def.Date), "Header of the date column")
	pf.StringVar(&opts.categoryField, "category-field", envOr("CATEGORY_FIELD", def.Category), "Header of the category column")
	pf.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")

	root.AddCommand(newYTDCmd(opts))
	root.AddCommand(newFullYearCmd(opts))
	root.AddCommand(newMonthlyCmd(opts))
	root.AddCommand(newSharesCmd(opts))
	return root
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// loadRecords reads and parses the export. Dropped rows are reported on
// stderr so they never mix with JSON output.
func (o *reportOptions) loadRecords(ctx context.Context, stderr io.Writer) ([]core.Record, error) {
	table, err := file.New(o.file, o.sheet).ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.file, err)
	}
	res := core.ParseRecords(table, core.FieldMap{Date: o.dateField, Category: o.categoryField})
	if res.Dropped > 0 {
		fmt.Fprintf(stderr, "warning: %d malformed rows skipped\n", res.Dropped)
	}
	return res.Records, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAsOf(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

const (
	minYear = 1900
	maxYear = 9999
)

func checkYear(flag string, y int) error {
	if y < minYear || y > maxYear {
		return fmt.Errorf("invalid %s %d: must be between %d and %d", flag, y, minYear, maxYear)
	}
	return nil
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || checkYear("--years", y) != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("at least one year is required")
	}
	return years, nil
}
