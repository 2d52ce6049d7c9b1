package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shelterstats/internal/core"
	"shelterstats/internal/stats"
)

func newYTDCmd(opts *reportOptions) *cobra.Command {
	var (
		asOf      string
		startYear int
	)
	cmd := &cobra.Command{
		Use:   "ytd",
		Short: "Year-to-date adoptions per year",
		Long: `Count adoptions from January 1st through the --as-of day of every year
from --start-year to the --as-of year.

Examples:
  adoptions-report ytd --as-of 2025-04-15 --start-year 2023`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkYear("--start-year", startYear); err != nil {
				return err
			}
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			records, err := opts.loadRecords(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return opts.printYears(cmd.OutOrStdout(), stats.YearToDate(records, at, startYear))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference day YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&startYear, "start-year", 2023, "First year of the series")
	return cmd
}

func newFullYearCmd(opts *reportOptions) *cobra.Command {
	var (
		asOf      string
		startYear int
	)
	cmd := &cobra.Command{
		Use:   "full-year",
		Short: "Total adoptions per calendar year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkYear("--start-year", startYear); err != nil {
				return err
			}
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			records, err := opts.loadRecords(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return opts.printYears(cmd.OutOrStdout(), stats.FullYear(records, at, startYear))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Last year is the year of this day YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&startYear, "start-year", 2023, "First year of the series")
	return cmd
}

func newMonthlyCmd(opts *reportOptions) *cobra.Command {
	var years string
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Month-by-month comparison of several years",
		Long: `Print twelve rows, January to December, with the Dog and Cat counts of
every requested year.

Examples:
  adoptions-report monthly --years 2024,2025`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ys, err := parseYears(years)
			if err != nil {
				return err
			}
			records, err := opts.loadRecords(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return opts.printMonthly(cmd.OutOrStdout(), stats.MonthlyComparison(records, ys))
		},
	}
	now := time.Now().Year()
	cmd.Flags().StringVar(&years, "years", fmt.Sprintf("%d,%d", now-1, now), "Comma-separated years to compare")
	return cmd
}

func newSharesCmd(opts *reportOptions) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "shares",
		Short: "Monthly Dog and Cat shares of one year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkYear("--year", year); err != nil {
				return err
			}
			records, err := opts.loadRecords(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rows := stats.MonthlyShares(stats.MonthlyComparison(records, []int{year}), year)
			return opts.printShares(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Year to report")
	return cmd
}

func (o *reportOptions) printYears(out io.Writer, rows []stats.YearPoint) error {
	if o.asJSON {
		return writeJSON(out, rows)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tDOG\tCAT\tOTHER\tTOTAL")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", r.Year, r.Counts[core.Dog], r.Counts[core.Cat], r.Counts[core.Other], r.Counts.Total())
	}
	return w.Flush()
}

func (o *reportOptions) printMonthly(out io.Writer, rows []stats.MonthlyPoint) error {
	if o.asJSON {
		return writeJSON(out, rows)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "MONTH")
	if len(rows) > 0 {
		for _, y := range rows[0].Years {
			ys := strconv.Itoa(y.Year)
			fmt.Fprintf(w, "\tDOG %s\tCAT %s\tTOTAL %s", ys, ys, ys)
		}
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprint(w, r.Month.String()[:3])
		for _, y := range r.Years {
			fmt.Fprintf(w, "\t%d\t%d\t%d", y.Counts[core.Dog], y.Counts[core.Cat], y.Counts.Total())
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func (o *reportOptions) printShares(out io.Writer, rows []stats.ShareRow) error {
	if o.asJSON {
		return writeJSON(out, rows)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tDOGS\tCATS\tTOTAL\tDOG %\tCAT %")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%.1f\n",
			r.Month.String()[:3], r.Counts[core.Dog], r.Counts[core.Cat], r.Counts.Total(), r.Share.Dog, r.Share.Cat)
	}
	return w.Flush()
}
