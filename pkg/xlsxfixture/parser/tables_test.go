package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newSheet(t *testing.T, name string, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.SetSheetName("Sheet1", name))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(name, cell, &r))
	}
	return f
}

func TestTableSheetNameLayout(t *testing.T) {
	f := newSheet(t, "myapp.Person", [][]interface{}{
		{"id", "name", "age"},
		{1, "Person 1", 21},
		{2, "Person 2", 22},
	})

	scan, err := ScanSheet(f, "myapp.Person")
	require.NoError(t, err)
	table, err := scan.Table(LayoutSheetName)
	require.NoError(t, err)

	assert.Equal(t, "myapp.Person", table.Identifier)
	assert.Equal(t, []string{"id", "name", "age"}, table.Header)
	assert.Equal(t, 1, table.HeaderRow)
	assert.Equal(t, 2, table.FirstRow())
	assert.Equal(t, 3, table.LastRow())
	assert.Equal(t, 2, table.DataRows)
	assert.True(t, table.Contains(2))
	assert.False(t, table.Contains(4))
}

func TestTableHeaderOnly(t *testing.T) {
	f := newSheet(t, "myapp.Person", [][]interface{}{{"id", "name"}})

	scan, err := ScanSheet(f, "myapp.Person")
	require.NoError(t, err)
	table, err := scan.Table(LayoutSheetName)
	require.NoError(t, err)
	assert.Equal(t, 0, table.DataRows)
	assert.False(t, table.Contains(table.FirstRow()))
}

func TestTableLegacyLayout(t *testing.T) {
	f := newSheet(t, "Sheet", [][]interface{}{
		{"myapp.Ingredient"},
		{"id", "name"},
		{1, "Salt"},
	})

	scan, err := ScanSheet(f, "Sheet")
	require.NoError(t, err)
	id, ok := scan.LegacyIdentifier()
	require.True(t, ok)
	assert.Equal(t, "myapp.Ingredient", id)

	table, err := scan.Table(LayoutLegacy)
	require.NoError(t, err)
	assert.Equal(t, "myapp.Ingredient", table.Identifier)
	assert.Equal(t, 2, table.HeaderRow)
	assert.Equal(t, []string{"id", "name"}, table.Header)
	assert.Equal(t, 3, table.FirstRow())
	assert.Equal(t, 1, table.DataRows)
}

func TestTableErrors(t *testing.T) {
	empty := newSheet(t, "empty", nil)
	scan, err := ScanSheet(empty, "empty")
	require.NoError(t, err)
	_, err = scan.Table(LayoutSheetName)
	assert.ErrorIs(t, err, ErrNoHeader)

	gap := newSheet(t, "gap", [][]interface{}{{"id", nil, "age"}})
	scan, err = ScanSheet(gap, "gap")
	require.NoError(t, err)
	_, err = scan.Table(LayoutSheetName)
	assert.ErrorContains(t, err, "empty header cell B1")

	_, err = scan.Table(LayoutLegacy)
	assert.Error(t, err)
}

func TestFindDataBounds(t *testing.T) {
	rows := [][]string{
		{"", ""},
		{"", "x", ""},
		{"y"},
		{},
	}
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	assert.Equal(t, 1, minRow)
	assert.Equal(t, 2, maxRow)
	assert.Equal(t, 0, minCol)
	assert.Equal(t, 1, maxCol)
}

func TestWriteCSV(t *testing.T) {
	f := newSheet(t, "myapp.Person", [][]interface{}{
		{"id", "name", "nickname"},
		{1, `Henrique "Rick" Portela`, nil},
		{2, "John", "JJ"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f, "myapp.Person"))
	expected := `"id","name","nickname"` + "\n" +
		`"1","Henrique ""Rick"" Portela",` + "\n" +
		`"2","John","JJ"` + "\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSVNoData(t *testing.T) {
	f := newSheet(t, "myapp.Person", [][]interface{}{{"id", "name"}})

	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, f, "myapp.Person"), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestWriteHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	w := NewCellWriter(f)
	require.NoError(t, w.WriteHeader("Sheet1", 1, []string{"id", "name"}, true))

	v, err := f.GetCellValue("Sheet1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "name", v)

	styleID, err := f.GetCellStyle("Sheet1", "A1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	require.NotNil(t, style.Alignment)
	assert.Equal(t, "center", style.Alignment.Horizontal)
}
