package codec

import (
	"errors"
	"fmt"

	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

// ErrFormula indicates a cell holding a formula. Formulas are not evaluated.
var ErrFormula = errors.New("formulas are not supported")

// ErrConversion indicates a cell or field value that cannot be converted to
// the kind of its field.
var ErrConversion = errors.New("value conversion failed")

// ErrUnsafeText indicates text holding characters a workbook cannot store.
var ErrUnsafeText = errors.New("text contains unserializable characters")

// ConversionError describes a failed conversion of Value to Kind.
type ConversionError struct {
	Kind  models.FieldKind
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %#v to %s: %v", e.Value, e.Kind, e.Err)
	}
	return fmt.Sprintf("cannot convert %#v to %s", e.Value, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports ErrConversion as a match.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

func newConversionError(kind models.FieldKind, value any, err error) *ConversionError {
	return &ConversionError{Kind: kind, Value: value, Err: err}
}

func formulaError(cell models.Cell) error {
	return fmt.Errorf("%w: cell at row %d, column %d", ErrFormula, cell.Row, cell.Col)
}
