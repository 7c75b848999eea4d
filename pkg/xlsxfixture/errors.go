package xlsxfixture

import (
	"errors"
	"fmt"

	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/parser"
)

// ErrNoData indicates a console export of a sheet without data rows.
var ErrNoData = parser.ErrNoData

// ErrNotStarted indicates a Serializer used before Start.
var ErrNotStarted = errors.New("serializer not started")

// ErrNoActiveSheet indicates a field written before any record was begun.
var ErrNoActiveSheet = errors.New("no active sheet")

// ErrValue indicates a field value the workbook cannot store.
var ErrValue = errors.New("invalid value")

// ErrUnsupportedKind indicates a field kind outside the allow-list when the
// encoder rejects unsupported kinds.
var ErrUnsupportedKind = errors.New("unsupported field kind")

// ErrNoMoreSheets indicates a cursor advanced past the last sheet.
var ErrNoMoreSheets = errors.New("no more sheets")

// SchemaError reports a sheet whose name or header does not match a model.
type SchemaError struct {
	Sheet string
	Field string // empty when the sheet itself is at fault
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema error in sheet %q (field %q): %v", e.Sheet, e.Field, e.Err)
	}
	return fmt.Sprintf("schema error in sheet %q: %v", e.Sheet, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(sheet, field string, err error) *SchemaError {
	return &SchemaError{Sheet: sheet, Field: field, Err: err}
}

// CellError reports a cell that could not be decoded.
type CellError struct {
	Sheet string
	Cell  string
	Row   int
	Col   int
	Field string
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("sheet %q cell %s (row %d, column %d, field %q): %v",
		e.Sheet, e.Cell, e.Row, e.Col, e.Field, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// NewCellError creates a new CellError.
func NewCellError(sheet, cell string, row, col int, field string, err error) *CellError {
	return &CellError{Sheet: sheet, Cell: cell, Row: row, Col: col, Field: field, Err: err}
}

// UnserializableValueError reports a field value holding characters the
// workbook cannot store. It matches ErrValue.
type UnserializableValueError struct {
	Model string
	Field string
	PK    any
	Err   error
}

func (e *UnserializableValueError) Error() string {
	return fmt.Sprintf("%s.%s (pk:%v) contains unserializable characters", e.Model, e.Field, e.PK)
}

func (e *UnserializableValueError) Unwrap() error {
	return e.Err
}

// Is reports ErrValue as a match.
func (e *UnserializableValueError) Is(target error) bool {
	return target == ErrValue
}

// NewUnserializableValueError creates a new UnserializableValueError.
func NewUnserializableValueError(model, field string, pk any, err error) *UnserializableValueError {
	return &UnserializableValueError{Model: model, Field: field, PK: pk, Err: err}
}

// SerializationError reports a field the encoder could not write.
type SerializationError struct {
	Model string
	Field string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error in %s.%s: %v", e.Model, e.Field, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// NewSerializationError creates a new SerializationError.
func NewSerializationError(model, field string, err error) *SerializationError {
	return &SerializationError{Model: model, Field: field, Err: err}
}
