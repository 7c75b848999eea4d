package models

import "errors"

// ErrRecordNotFound is returned by stores when no record has the requested
// primary key.
var ErrRecordNotFound = errors.New("record not found")

// Object is a typed record handed to the encoder.
type Object interface {
	// Model returns the type descriptor of the record.
	Model() *Model
	// PK returns the primary key, or nil when unassigned.
	PK() any
	// Value returns the value held by field. Relation fields yield the raw
	// identifier of the referenced record.
	Value(field *Field) (any, error)
}

// Values maps field names to typed values.
type Values map[string]any

// Record is a reconstructed record: a model plus its field values.
type Record struct {
	Meta   *Model
	Values Values
}

var _ Object = (*Record)(nil)

// NewRecord creates a record of model m holding values.
func NewRecord(m *Model, values Values) *Record {
	if values == nil {
		values = Values{}
	}
	return &Record{Meta: m, Values: values}
}

// Model implements Object.
func (r *Record) Model() *Model {
	return r.Meta
}

// PK implements Object.
func (r *Record) PK() any {
	if r.Meta == nil {
		return nil
	}
	pk := r.Meta.PK()
	if pk == nil {
		return nil
	}
	return r.Values[pk.Name]
}

// SetPK assigns the primary key.
func (r *Record) SetPK(v any) {
	if pk := r.Meta.PK(); pk != nil {
		r.Values[pk.Name] = v
	}
}

// Value implements Object.
func (r *Record) Value(field *Field) (any, error) {
	v := r.Values[field.Name]
	if field.Kind == KindRelation {
		if ref, ok := v.(*Record); ok {
			if ref == nil {
				return nil, nil
			}
			return ref.PK(), nil
		}
	}
	return v, nil
}
