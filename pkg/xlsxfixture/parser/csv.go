package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoData indicates a sheet with no rows below its header.
var ErrNoData = errors.New("there is no data to dump")

// WriteCSV renders sheet as comma-separated text. Every non-empty cell is
// quoted with interior quotes doubled; empty cells stay empty.
func WriteCSV(w io.Writer, f *excelize.File, sheet string) error {
	scan, err := ScanSheet(f, sheet)
	if err != nil {
		return err
	}
	numRows := scan.Rows()
	if numRows <= 1 {
		return ErrNoData
	}
	_, _, _, maxCol := findDataBounds(scan.rows)
	width := maxCol + 1

	var b strings.Builder
	for _, row := range scan.rows[:numRows] {
		for col := 0; col < width; col++ {
			if col > 0 {
				b.WriteByte(',')
			}
			if col < len(row) && row[col] != "" {
				b.WriteString(quote(row[col]))
			}
		}
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
