package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestReadMeasurements_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"First Name", "Last Name", "Team", "Metric", "Value", "Date"},
			{"John", "Smith", "Tigers", "forty", "4.52", "3/15/2026"},
			{"Maria", "Garcia", "Tigers", "vertical", "31.5", ""},
		},
	})

	rows, err := ReadMeasurements(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "John", rows[0].FirstName)
	assert.Equal(t, "Smith", rows[0].LastName)
	assert.Equal(t, "Tigers", rows[0].TeamName)
	assert.Equal(t, "forty", rows[0].Metric)
	assert.Equal(t, "4.52", rows[0].Value)
	assert.Equal(t, "3/15/2026", rows[0].Date)

	assert.Equal(t, 3, rows[1].Row)
	assert.Equal(t, "vertical", rows[1].Metric)
}

func TestReadMeasurements_HeaderAliasesAndOrder(t *testing.T) {
	// Reordered columns with alias headers still map correctly.
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Result", "Drill", "Last", "First"},
			{"4.52", "forty", "Smith", "John"},
		},
	})

	rows, err := ReadMeasurements(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John", rows[0].FirstName)
	assert.Equal(t, "Smith", rows[0].LastName)
	assert.Equal(t, "forty", rows[0].Metric)
	assert.Equal(t, "4.52", rows[0].Value)
}

func TestReadMeasurements_SkipsBlankRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"First Name", "Last Name", "Metric", "Value"},
			{"", "", "", ""},
			{"John", "Smith", "forty", "4.52"},
		},
	})

	rows, err := ReadMeasurements(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// Row numbers track the spreadsheet, not the filtered slice.
	assert.Equal(t, 4, rows[0].Row)
}

func TestReadMeasurements_MissingColumn(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"First Name", "Last Name", "Value"},
			{"John", "Smith", "4.52"},
		},
	})

	_, err := ReadMeasurements(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric")
}

func TestReadMeasurements_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ignore": {{"x"}},
		"Data": {
			{"First Name", "Last Name", "Metric", "Value"},
			{"John", "Smith", "forty", "4.52"},
		},
	})

	rows, err := ReadMeasurements(path, Options{SheetName: "Data"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadMeasurements(path, Options{SheetName: "Nope"})
	assert.Error(t, err)
}

func TestReadRoster_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"First Name", "Last Name", "Team", "Organization"},
			{"John", "Smith", "Tigers", "org-1"},
			{"Maria", "Garcia", "Tigers", ""},
		},
	})

	entries, err := ReadRoster(path, Options{}, "org-default")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "org-1", entries[0].OrganizationID)
	assert.Equal(t, "org-default", entries[1].OrganizationID)
	assert.Equal(t, "Tigers", entries[0].TeamName)
}

func TestReadRoster_NoOrgAnywhere(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"First Name", "Last Name"},
			{"John", "Smith"},
		},
	})

	_, err := ReadRoster(path, Options{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no organization")
}

func TestReadMeasurements_MissingFile(t *testing.T) {
	_, err := ReadMeasurements(filepath.Join(t.TempDir(), "nope.xlsx"), Options{})
	assert.Error(t, err)
}
