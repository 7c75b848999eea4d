// Package models defines the data structures shared by the xlsx fixture
// encoder and decoder.
package models

// FieldKind is the semantic kind of a field value. It drives both formatting
// on encode and parsing on decode.
type FieldKind string

const (
	// KindIdentifier is a surrogate primary key.
	KindIdentifier FieldKind = "identifier"
	// KindBoolean is a true/false flag.
	KindBoolean FieldKind = "boolean"
	// KindText is free-form text.
	KindText FieldKind = "text"
	// KindInteger is a whole number.
	KindInteger FieldKind = "integer"
	// KindDecimal is an exact decimal number.
	KindDecimal FieldKind = "decimal"
	// KindDuration is an elapsed time span.
	KindDuration FieldKind = "duration"
	// KindDateTime is a point in time (date and time of day).
	KindDateTime FieldKind = "datetime"
	// KindDate is a calendar date without time of day.
	KindDate FieldKind = "date"
	// KindRelation is a reference to another record by primary key.
	KindRelation FieldKind = "relation"
)

var supportedKinds = map[FieldKind]bool{
	KindIdentifier: true,
	KindBoolean:    true,
	KindText:       true,
	KindInteger:    true,
	KindDecimal:    true,
	KindDuration:   true,
	KindDateTime:   true,
	KindDate:       true,
	KindRelation:   true,
}

// Supported reports whether k belongs to the allow-list of field kinds.
func (k FieldKind) Supported() bool {
	return supportedKinds[k]
}

// Field describes one field of a model.
type Field struct {
	// Name is the field name as written in the header row.
	Name string `yaml:"name"`
	// Kind is the semantic kind of the field.
	Kind FieldKind `yaml:"kind"`
	// To is the identifier of the referenced model for relation fields.
	To string `yaml:"to,omitempty"`
	// Column overrides the storage column name.
	Column string `yaml:"column,omitempty"`
	// Null allows the field to hold no value.
	Null bool `yaml:"null,omitempty"`
	// AutoNow marks a timestamp refreshed on every save.
	AutoNow bool `yaml:"auto_now,omitempty"`
	// AutoNowAdd marks a timestamp set when the record is created.
	AutoNowAdd bool `yaml:"auto_now_add,omitempty"`

	// Related is the resolved target of a relation field.
	Related *Model `yaml:"-"`
}

// AutoPopulated reports whether the field is filled in on save when empty.
func (f *Field) AutoPopulated() bool {
	return f.AutoNow || f.AutoNowAdd
}

// ColumnName returns the storage column for the field. Relations default to
// "<name>_id".
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	if f.Kind == KindRelation {
		return f.Name + "_id"
	}
	return f.Name
}
