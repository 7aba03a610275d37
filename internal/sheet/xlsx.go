// Package sheet reads XLSX workbooks into import rows and roster
// entries. Columns are resolved by header name rather than position so
// exported spreadsheets with reordered columns still load.
package sheet

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/normalize"
)

// Options configures which sheet to read.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// measurement header aliases, matched case-insensitively after trimming.
var measurementColumns = map[string][]string{
	"first":  {"first name", "first", "firstname"},
	"last":   {"last name", "last", "lastname"},
	"team":   {"team", "team name"},
	"metric": {"metric", "drill", "event"},
	"value":  {"value", "result", "score"},
	"unit":   {"unit", "units"},
	"date":   {"date", "measured", "measured at", "test date"},
	"age":    {"age"},
}

var rosterColumns = map[string][]string{
	"first": {"first name", "first", "firstname"},
	"last":  {"last name", "last", "lastname"},
	"team":  {"team", "team name"},
	"org":   {"organization", "organization id", "org", "org id"},
}

// ReadMeasurements reads measurement rows from an XLSX file. The first
// row is the header; data rows keep their 1-based spreadsheet numbers so
// errors reported downstream point at the file the user sees.
func ReadMeasurements(path string, opts Options) ([]model.RowInput, error) {
	sheet, err := openSheet(path, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("sheet: file has no rows")
	}

	cols := mapColumns(rowToStrings(sheet.Rows[0]), measurementColumns)
	for _, required := range []string{"first", "last", "metric", "value"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("sheet: missing required column %q", required)
		}
	}

	var rows []model.RowInput
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if blankRow(cells) {
			continue
		}
		rows = append(rows, model.RowInput{
			Row:       i + 2, // header is row 1
			FirstName: cellAt(cells, cols, "first"),
			LastName:  cellAt(cells, cols, "last"),
			TeamName:  cellAt(cells, cols, "team"),
			Metric:    cellAt(cells, cols, "metric"),
			Value:     cellAt(cells, cols, "value"),
			Unit:      cellAt(cells, cols, "unit"),
			Date:      cellAt(cells, cols, "date"),
			Age:       cellAt(cells, cols, "age"),
		})
	}
	return rows, nil
}

// ReadRoster reads roster seed entries from an XLSX file. The
// organization column may be omitted when defaultOrgID is set.
func ReadRoster(path string, opts Options, defaultOrgID string) ([]model.RosterEntry, error) {
	sheet, err := openSheet(path, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("sheet: file has no rows")
	}

	cols := mapColumns(rowToStrings(sheet.Rows[0]), rosterColumns)
	for _, required := range []string{"first", "last"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("sheet: missing required column %q", required)
		}
	}

	var entries []model.RosterEntry
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if blankRow(cells) {
			continue
		}
		orgID := cellAt(cells, cols, "org")
		if orgID == "" {
			orgID = defaultOrgID
		}
		if orgID == "" {
			return nil, eris.Errorf("sheet: row %d has no organization and no default was given", i+2)
		}
		entries = append(entries, model.RosterEntry{
			FirstName:      cellAt(cells, cols, "first"),
			LastName:       cellAt(cells, cols, "last"),
			TeamName:       cellAt(cells, cols, "team"),
			OrganizationID: orgID,
		})
	}
	return entries, nil
}

func openSheet(path string, opts Options) (*xlsx.Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: open file")
	}
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("sheet: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("sheet: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// mapColumns resolves header aliases to column indexes. The first header
// matching an alias wins.
func mapColumns(header []string, aliases map[string][]string) map[string]int {
	cols := make(map[string]int)
	for idx, h := range header {
		h = normalize.Name(h)
		for key, names := range aliases {
			if _, taken := cols[key]; taken {
				continue
			}
			for _, name := range names {
				if h == name {
					cols[key] = idx
					break
				}
			}
		}
	}
	return cols
}

func cellAt(cells []string, cols map[string]int, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
