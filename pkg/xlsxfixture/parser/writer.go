package parser

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/xuri/excelize/v2"
)

// dateNumFmt is the built-in "m/d/yyyy" number format.
const dateNumFmt = 14

// firstSerialDate is the first day whose 1900-system serial number maps back
// to the same calendar day. Earlier dates are written as text.
var firstSerialDate = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)

// HeaderStyle is the fixed theme of header cells.
var HeaderStyle = excelize.Style{
	Font: &excelize.Font{
		Family: "Calibri",
		Size:   11,
		Bold:   true,
	},
	Fill: excelize.Fill{
		Type:    "pattern",
		Pattern: 1,
		Color:   []string{"9BBB59"},
	},
	Alignment: &excelize.Alignment{
		Horizontal: "center",
		Vertical:   "center",
	},
}

// CellWriter writes cell values into a workbook.
type CellWriter struct {
	f           *excelize.File
	dateStyle   int
	headerStyle int
}

// NewCellWriter creates a CellWriter for f.
func NewCellWriter(f *excelize.File) *CellWriter {
	return &CellWriter{f: f}
}

// WriteHeader writes names into the given row, optionally styled with
// HeaderStyle.
func (w *CellWriter) WriteHeader(sheet string, row int, names []string, styled bool) error {
	if len(names) == 0 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(names))
	for i, name := range names {
		values[i] = name
	}
	if err := w.f.SetSheetRow(sheet, first, &values); err != nil {
		return err
	}
	if !styled {
		return nil
	}
	if w.headerStyle == 0 {
		style := HeaderStyle
		if w.headerStyle, err = w.f.NewStyle(&style); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(names), row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, first, last, w.headerStyle)
}

// WriteCell writes v at the given coordinates.
func (w *CellWriter) WriteCell(sheet string, col, row int, v models.CellValue) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	switch v.Type {
	case models.CellEmpty:
		return nil
	case models.CellBool:
		b, ok := v.Value.(bool)
		if !ok {
			return fmt.Errorf("cell %s: %T is not a boolean", name, v.Value)
		}
		return w.f.SetCellBool(sheet, name, b)
	case models.CellNumber:
		if d, ok := v.Value.(decimal.Decimal); ok {
			// Keep the exact digits; the cell is still numeric.
			return w.f.SetCellDefault(sheet, name, d.String())
		}
		return w.f.SetCellValue(sheet, name, v.Value)
	case models.CellDate:
		t, ok := v.Value.(time.Time)
		if !ok {
			return fmt.Errorf("cell %s: %T is not a date", name, v.Value)
		}
		if t.Before(firstSerialDate) {
			return w.f.SetCellStr(sheet, name, t.Format("2006-01-02"))
		}
		if err := w.f.SetCellValue(sheet, name, t); err != nil {
			return err
		}
		if w.dateStyle == 0 {
			if w.dateStyle, err = w.f.NewStyle(&excelize.Style{NumFmt: dateNumFmt}); err != nil {
				return err
			}
		}
		return w.f.SetCellStyle(sheet, name, name, w.dateStyle)
	default:
		s, ok := v.Value.(string)
		if !ok {
			s = fmt.Sprint(v.Value)
		}
		return w.f.SetCellStr(sheet, name, s)
	}
}
