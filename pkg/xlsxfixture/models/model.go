package models

import "strings"

// Model is the type descriptor of a set of records. Its label is used as the
// sheet name.
type Model struct {
	// App is the application namespace (e.g. "myapp").
	App string `yaml:"app"`
	// Name is the type name (e.g. "Person").
	Name string `yaml:"name"`
	// Table overrides the storage table name.
	Table string `yaml:"table,omitempty"`
	// NaturalKey lists the fields forming the natural key, if any.
	NaturalKey []string `yaml:"natural_key,omitempty"`
	// Fields lists the fields in declaration order. The primary key is first.
	Fields []*Field `yaml:"fields"`
}

// Label returns the fully-qualified identifier "<app>.<Name>".
func (m *Model) Label() string {
	return m.App + "." + m.Name
}

// TableName returns the storage table, "<app>_<name>" unless overridden.
func (m *Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return m.App + "_" + strings.ToLower(m.Name)
}

// Field returns the field called name.
func (m *Model) Field(name string) (*Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// PK returns the primary key field, or nil when the model has none.
func (m *Model) PK() *Field {
	if len(m.Fields) > 0 && m.Fields[0].Kind == KindIdentifier {
		return m.Fields[0]
	}
	return nil
}

// HasNaturalKey reports whether the model declares a natural key.
func (m *Model) HasNaturalKey() bool {
	return len(m.NaturalKey) > 0
}

// AutoFields returns the fields populated automatically on save.
func (m *Model) AutoFields() []*Field {
	var fields []*Field
	for _, f := range m.Fields {
		if f.AutoPopulated() {
			fields = append(fields, f)
		}
	}
	return fields
}
