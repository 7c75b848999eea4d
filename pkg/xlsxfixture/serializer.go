package xlsxfixture

import (
	"errors"
	"fmt"
	"io"
	"iter"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/codec"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/parser"
	"github.com/xuri/excelize/v2"
)

var log = logger.GetOrCreate("xlsxfixture")

// defaultSheet is the sheet every new workbook starts with.
const defaultSheet = "Sheet1"

// sheetState is the header binding and row cursor of one output sheet.
type sheetState struct {
	name    string
	columns map[string]int
	nextRow int
}

// Serializer writes records to a workbook, one sheet per model.
//
// States: unstarted, started without a sheet, started with an active sheet.
// Start moves to the second, the first BeginRecord to the third, and Finish
// back to unstarted.
type Serializer struct {
	opts    Options
	f       *excelize.File
	w       *parser.CellWriter
	sheets  map[string]*sheetState
	active  *sheetState
	row     int
	started bool
}

// NewSerializer creates a Serializer.
func NewSerializer(opts Options) *Serializer {
	return &Serializer{opts: opts}
}

// Start allocates an empty workbook.
func (s *Serializer) Start() error {
	if s.f != nil {
		s.f.Close()
	}
	s.f = excelize.NewFile()
	s.w = parser.NewCellWriter(s.f)
	s.sheets = make(map[string]*sheetState)
	s.active = nil
	s.row = 0
	s.started = true
	return nil
}

// File returns the workbook being written.
func (s *Serializer) File() *excelize.File {
	return s.f
}

// Row returns the row of the current record.
func (s *Serializer) Row() int {
	return s.row
}

// ActiveSheet returns the name of the active sheet, or "" before the first
// record.
func (s *Serializer) ActiveSheet() string {
	if s.active == nil {
		return ""
	}
	return s.active.name
}

// columnFields returns the fields written as columns for m, in declaration
// order. The primary key is left out when natural keys are in use.
func (s *Serializer) columnFields(m *models.Model) []*models.Field {
	skipPK := s.opts.UseNaturalPrimaryKeys && m.HasNaturalKey()
	fields := make([]*models.Field, 0, len(m.Fields))
	for i, f := range m.Fields {
		if i == 0 && skipPK && f.Kind == models.KindIdentifier {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// BeginRecord selects the sheet of obj's model, creating it with a header on
// first use, and moves to its next empty row.
func (s *Serializer) BeginRecord(obj models.Object) error {
	if !s.started {
		return ErrNotStarted
	}
	m := obj.Model()
	if m == nil {
		return fmt.Errorf("record %v has no model", obj.PK())
	}

	st, ok := s.sheets[m.Label()]
	if !ok {
		var err error
		if st, err = s.newSheet(m); err != nil {
			return err
		}
	}
	if s.active != st {
		idx, err := s.f.GetSheetIndex(st.name)
		if err != nil {
			return err
		}
		s.f.SetActiveSheet(idx)
		s.active = st
	}
	s.row = st.nextRow
	st.nextRow++

	pk := obj.PK()
	if col, ok := st.columns[pkName(m)]; ok && pk != nil {
		v, err := codec.EncodeRaw(pk)
		if err != nil {
			return NewUnserializableValueError(m.Label(), pkName(m), pk, err)
		}
		return s.w.WriteCell(st.name, col, s.row, v)
	}
	return nil
}

func pkName(m *models.Model) string {
	if pk := m.PK(); pk != nil {
		return pk.Name
	}
	return ""
}

func (s *Serializer) newSheet(m *models.Model) (*sheetState, error) {
	fields := s.columnFields(m)
	names := make([]string, 0, len(fields))
	columns := make(map[string]int, len(fields))
	for _, f := range fields {
		if !f.Kind.Supported() && s.opts.UnsupportedKinds == KindPolicyReject {
			return nil, NewSerializationError(m.Label(), f.Name, fmt.Errorf("%w: %q", ErrUnsupportedKind, f.Kind))
		}
		names = append(names, f.Name)
		columns[f.Name] = len(names)
	}

	name := m.Label()
	if len(s.sheets) == 0 {
		if err := s.f.SetSheetName(defaultSheet, name); err != nil {
			return nil, err
		}
	} else if _, err := s.f.NewSheet(name); err != nil {
		return nil, err
	}
	if err := s.w.WriteHeader(name, 1, names, s.opts.ShouldStyleHeader()); err != nil {
		return nil, err
	}
	log.Debug("sheet created", "sheet", name, "columns", len(names))

	st := &sheetState{name: name, columns: columns, nextRow: 2}
	s.sheets[name] = st
	return st, nil
}

func (s *Serializer) column(obj models.Object, field *models.Field) (int, error) {
	if !s.started {
		return 0, ErrNotStarted
	}
	if s.active == nil {
		return 0, ErrNoActiveSheet
	}
	m := obj.Model()
	if m == nil {
		return 0, NewSerializationError(s.active.name, field.Name, errors.New("record has no model"))
	}
	if label := m.Label(); label != s.active.name {
		return 0, NewSerializationError(label, field.Name, fmt.Errorf("active sheet is %q", s.active.name))
	}
	col, ok := s.active.columns[field.Name]
	if !ok {
		return 0, NewSerializationError(s.active.name, field.Name, errors.New("no column for field"))
	}
	return col, nil
}

// WriteField writes the value of field into its column on the current row.
func (s *Serializer) WriteField(obj models.Object, field *models.Field) error {
	col, err := s.column(obj, field)
	if err != nil {
		return err
	}
	v, err := obj.Value(field)
	if err != nil {
		return NewSerializationError(s.active.name, field.Name, err)
	}
	cell, err := codec.Encode(field, v)
	if err != nil {
		return s.encodeError(obj, field, err)
	}
	return s.w.WriteCell(s.active.name, col, s.row, cell)
}

// WriteRelationField writes the raw identifier of the record referenced by
// field.
func (s *Serializer) WriteRelationField(obj models.Object, field *models.Field) error {
	col, err := s.column(obj, field)
	if err != nil {
		return err
	}
	v, err := obj.Value(field)
	if err != nil {
		return NewSerializationError(s.active.name, field.Name, err)
	}
	cell, err := codec.EncodeRaw(v)
	if err != nil {
		return s.encodeError(obj, field, err)
	}
	return s.w.WriteCell(s.active.name, col, s.row, cell)
}

func (s *Serializer) encodeError(obj models.Object, field *models.Field, err error) error {
	if errors.Is(err, codec.ErrUnsafeText) {
		return NewUnserializableValueError(obj.Model().Label(), field.Name, obj.PK(), err)
	}
	return NewSerializationError(obj.Model().Label(), field.Name, err)
}

// Finish writes the workbook to w and releases it. A terminal gets a CSV
// projection of the active sheet instead of the binary workbook.
func (s *Serializer) Finish(w io.Writer) error {
	if !s.started {
		return ErrNotStarted
	}
	defer s.reset()

	if s.opts.IsConsole(w) {
		if s.active == nil {
			return ErrNoData
		}
		return parser.WriteCSV(w, s.f, s.active.name)
	}
	_, err := s.f.WriteTo(w)
	return err
}

func (s *Serializer) reset() {
	if s.f != nil {
		if err := s.f.Close(); err != nil {
			log.Debug("closing workbook", "error", err)
		}
	}
	s.f = nil
	s.w = nil
	s.sheets = nil
	s.active = nil
	s.started = false
}

// Serialize writes every object of seq to w. Relation fields are written as
// raw identifiers; the primary key is written by BeginRecord.
func (s *Serializer) Serialize(w io.Writer, seq iter.Seq2[models.Object, error]) error {
	if err := s.Start(); err != nil {
		return err
	}
	count := 0
	for obj, err := range seq {
		if err == nil {
			err = s.serializeObject(obj)
		}
		if err != nil {
			s.reset()
			return err
		}
		count++
	}
	log.Debug("serialized records", "count", count, "sheets", len(s.sheets))
	return s.Finish(w)
}

func (s *Serializer) serializeObject(obj models.Object) error {
	if err := s.BeginRecord(obj); err != nil {
		return err
	}
	m := obj.Model()
	for _, f := range s.columnFields(m) {
		if f == m.PK() {
			continue
		}
		var err error
		if f.Kind == models.KindRelation {
			err = s.WriteRelationField(obj, f)
		} else {
			err = s.WriteField(obj, f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
