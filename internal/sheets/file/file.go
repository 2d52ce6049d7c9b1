// Package file reads the adoption table from a local CSV or XLSX export.
package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelterstats/internal/core"
	ports "shelterstats/internal/sheets"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader reads a delimited or spreadsheet file. The format follows the file
// extension: .xlsx/.xlsm/.xltx use excelize, anything else is parsed as CSV.
type Reader struct {
	path  string
	sheet string
}

var (
	_ ports.TableReader  = (*Reader)(nil)
	_ ports.MatrixReader = (*Reader)(nil)
	_ ports.Named        = (*Reader)(nil)
)

// New returns a Reader for path. sheet selects the worksheet of an XLSX
// workbook; empty means the first one.
func New(path, sheet string) *Reader {
	return &Reader{path: strings.TrimSpace(path), sheet: strings.TrimSpace(sheet)}
}

// Values returns every row of the file, header first.
func (r *Reader) Values(ctx context.Context) ([][]string, error) {
	if r.path == "" {
		return nil, errors.New("no fallback file configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isWorkbook(r.path) {
		return r.readWorkbook()
	}
	return r.readCSV()
}

// ReadTable implements ports.TableReader.
func (r *Reader) ReadTable(ctx context.Context) (core.Table, error) {
	values, err := r.Values(ctx)
	if err != nil {
		return core.Table{}, err
	}
	return ports.BuildTable(values)
}

func (r *Reader) Source() string { return "file:" + filepath.Base(r.path) }

func isWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

func (r *Reader) readCSV() ([][]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if strings.EqualFold(filepath.Ext(r.path), ".tsv") {
		cr.Comma = '\t'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return dropBlankRows(rows), nil
}

func (r *Reader) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%s has no worksheets", r.path)
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, r.path, err)
	}
	return dropBlankRows(rows), nil
}

// dropBlankRows removes rows whose cells are all empty, as exported sheets
// often end with a run of them.
func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}
