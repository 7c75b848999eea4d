// Package codec maps typed field values to spreadsheet cell values and back.
//
// Every field kind has one encode and one decode function, selected from a
// table by kind. Kinds outside the table use the string fallback.
package codec

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

// Resolver fetches a record by primary key. It backs relation fields.
type Resolver interface {
	Get(ctx context.Context, model *models.Model, pk any) (*models.Record, error)
}

type encodeFunc func(v any) (models.CellValue, error)

type decodeFunc func(ctx context.Context, d *Decoder, field *models.Field, cell models.Cell) (any, error)

type kindCodec struct {
	encode encodeFunc
	decode decodeFunc
}

var fallbackCodec = kindCodec{encode: encodeString, decode: decodeString}

var codecs = map[models.FieldKind]kindCodec{
	models.KindIdentifier: {encode: encodeString, decode: decodeIdentifier},
	models.KindBoolean:    {encode: encodeBool, decode: decodeBool},
	models.KindText:       fallbackCodec,
	models.KindInteger:    fallbackCodec,
	models.KindDuration:   fallbackCodec,
	models.KindDecimal:    {encode: encodeDecimal, decode: decodeDecimal},
	models.KindDateTime:   {encode: encodeDateTime, decode: decodeDateTime},
	models.KindDate:       {encode: encodeDate, decode: decodeDate},
	models.KindRelation:   {encode: EncodeRaw, decode: decodeRelation},
}

func lookup(kind models.FieldKind) kindCodec {
	if c, ok := codecs[kind]; ok {
		return c
	}
	return fallbackCodec
}

// Encode converts the value of field to a cell value.
func Encode(field *models.Field, v any) (models.CellValue, error) {
	if v == nil {
		return models.EmptyCell, nil
	}
	return lookup(field.Kind).encode(v)
}

// EncodeRaw writes an identifier as-is: numbers stay numbers, anything else
// becomes text. Referenced records are replaced by their primary key.
func EncodeRaw(v any) (models.CellValue, error) {
	if rec, ok := v.(*models.Record); ok {
		if rec == nil {
			return models.EmptyCell, nil
		}
		v = rec.PK()
	}
	switch x := v.(type) {
	case nil:
		return models.EmptyCell, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return models.CellValue{Type: models.CellNumber, Value: x}, nil
	default:
		return encodeString(v)
	}
}

func encodeString(v any) (models.CellValue, error) {
	s := Stringify(v)
	if err := CheckText(s); err != nil {
		return models.EmptyCell, err
	}
	return models.CellValue{Type: models.CellText, Value: s}, nil
}

func encodeBool(v any) (models.CellValue, error) {
	switch x := v.(type) {
	case bool:
		return models.CellValue{Type: models.CellBool, Value: x}, nil
	case *bool:
		if x == nil {
			return models.EmptyCell, nil
		}
		return models.CellValue{Type: models.CellBool, Value: *x}, nil
	}
	return models.EmptyCell, newConversionError(models.KindBoolean, v, nil)
}

func encodeDateTime(v any) (models.CellValue, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return models.EmptyCell, nil
		}
		return models.CellValue{Type: models.CellText, Value: FormatTimestamp(x)}, nil
	case *time.Time:
		if x == nil {
			return models.EmptyCell, nil
		}
		return encodeDateTime(*x)
	case string:
		return encodeString(x)
	}
	return models.EmptyCell, newConversionError(models.KindDateTime, v, nil)
}

func encodeDate(v any) (models.CellValue, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return models.EmptyCell, nil
		}
		return models.CellValue{Type: models.CellDate, Value: truncateDate(x)}, nil
	case *time.Time:
		if x == nil {
			return models.EmptyCell, nil
		}
		return encodeDate(*x)
	case string:
		return encodeString(x)
	}
	return models.EmptyCell, newConversionError(models.KindDate, v, nil)
}

func encodeDecimal(v any) (models.CellValue, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return models.CellValue{Type: models.CellNumber, Value: x}, nil
	case *decimal.Decimal:
		if x == nil {
			return models.EmptyCell, nil
		}
		return models.CellValue{Type: models.CellNumber, Value: *x}, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return models.CellValue{Type: models.CellNumber, Value: x}, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return models.EmptyCell, newConversionError(models.KindDecimal, v, err)
		}
		return models.CellValue{Type: models.CellNumber, Value: d}, nil
	}
	return models.EmptyCell, newConversionError(models.KindDecimal, v, nil)
}

// Decoder converts cells back to typed values.
type Decoder struct {
	// UseTZ requires zone-aware date-times; naive values get Location.
	UseTZ bool
	// Location is the default zone, UTC when nil.
	Location *time.Location
	// Resolver looks up the targets of relation fields.
	Resolver Resolver
}

func (d *Decoder) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// Decode converts cell to the kind of field. Empty cells decode to nil.
func (d *Decoder) Decode(ctx context.Context, field *models.Field, cell models.Cell) (any, error) {
	switch {
	case cell.Type == models.CellEmpty:
		return nil, nil
	case cell.Type == models.CellFormula, strings.HasPrefix(cell.Raw, "="):
		return nil, formulaError(cell)
	}
	return lookup(field.Kind).decode(ctx, d, field, cell)
}

func decodeString(_ context.Context, _ *Decoder, _ *models.Field, cell models.Cell) (any, error) {
	switch cell.Type {
	case models.CellBool:
		return strconv.FormatBool(rawBool(cell.Raw)), nil
	case models.CellDate:
		return cell.Time.Format("2006-01-02 15:04:05"), nil
	}
	return cell.Raw, nil
}

func decodeIdentifier(_ context.Context, _ *Decoder, _ *models.Field, cell models.Cell) (any, error) {
	return rawKey(cell.Raw), nil
}

func decodeBool(_ context.Context, _ *Decoder, _ *models.Field, cell models.Cell) (any, error) {
	switch cell.Type {
	case models.CellBool:
		return rawBool(cell.Raw), nil
	case models.CellNumber:
		f, err := strconv.ParseFloat(cell.Raw, 64)
		if err != nil {
			return nil, newConversionError(models.KindBoolean, cell.Raw, err)
		}
		return f != 0, nil
	}
	return cell.Raw != "", nil
}

func decodeDateTime(_ context.Context, d *Decoder, _ *models.Field, cell models.Cell) (any, error) {
	if cell.Type == models.CellDate {
		t := cell.Time
		if d.UseTZ && cell.Naive {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), d.location())
		}
		return t, nil
	}
	t, ok, err := ParseTimestamp(cell.Raw, d.location())
	if err != nil {
		return nil, err
	}
	if !ok {
		return cell.Raw, nil
	}
	return t, nil
}

func decodeDate(_ context.Context, _ *Decoder, _ *models.Field, cell models.Cell) (any, error) {
	if cell.Type == models.CellDate {
		return truncateDate(cell.Time), nil
	}
	s := strings.TrimSpace(cell.Raw)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, newConversionError(models.KindDate, cell.Raw, err)
	}
	return t, nil
}

func decodeDecimal(_ context.Context, _ *Decoder, _ *models.Field, cell models.Cell) (any, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(cell.Raw))
	if err != nil {
		return nil, newConversionError(models.KindDecimal, cell.Raw, err)
	}
	return v, nil
}

func decodeRelation(ctx context.Context, d *Decoder, field *models.Field, cell models.Cell) (any, error) {
	if field.Related == nil {
		return nil, fmt.Errorf("relation %q has no resolved target model", field.Name)
	}
	if d.Resolver == nil {
		return nil, fmt.Errorf("relation %q: no resolver configured", field.Name)
	}
	pk := rawKey(cell.Raw)
	rec, err := d.Resolver.Get(ctx, field.Related, pk)
	if err != nil {
		return nil, fmt.Errorf("%s with pk %v: %w", field.Related.Label(), pk, err)
	}
	return rec, nil
}

// rawKey returns integral numbers as int64 and anything else unchanged.
func rawKey(raw string) any {
	s := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return raw
}

func rawBool(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "1", "TRUE":
		return true
	}
	return false
}
