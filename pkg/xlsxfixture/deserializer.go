package xlsxfixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/codec"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/parser"
	"github.com/xuri/excelize/v2"
)

// Registry resolves model identifiers.
type Registry interface {
	Model(identifier string) (*models.Model, error)
}

// Store builds, persists and fetches records.
type Store interface {
	// Build creates an unsaved record from decoded values.
	Build(model *models.Model, values models.Values) (*models.Record, error)
	// Save persists rec and assigns its primary key when missing.
	Save(ctx context.Context, rec *models.Record) error
	// Get fetches a record by primary key.
	Get(ctx context.Context, model *models.Model, pk any) (*models.Record, error)
}

// DeserializedObject is a persisted record and its many-to-many relations.
// Workbooks carry no many-to-many data, so Relations is always empty.
type DeserializedObject struct {
	Object    *models.Record
	Relations map[string][]any
}

var errUnknownField = errors.New("model has no such field")

var errDuplicateColumn = errors.New("field appears twice in header")

// column binds a header column to a model field.
type column struct {
	index int
	field *models.Field
}

// cursor is the decode position: the bound sheet and the next row to read.
type cursor struct {
	sheet   int
	row     int
	table   *parser.Table // nil for a sheet without a header
	model   *models.Model
	columns []column
}

// exhausted reports whether the bound sheet has no rows left.
func (c *cursor) exhausted() bool {
	return c.table == nil || !c.table.Contains(c.row)
}

// Deserializer reads records from a workbook, sheet by sheet and row by row.
// It is a single-pass iterator.
type Deserializer struct {
	opts     Options
	f        *excelize.File
	owned    bool
	registry Registry
	store    Store
	reader   *parser.CellReader
	decoder  *codec.Decoder
	sheets   []string
	tables   map[int]*parser.Table
	cur      cursor
	now      func() time.Time
}

// NewDeserializer opens the workbook in r and binds its first sheet.
func NewDeserializer(ctx context.Context, r io.Reader, registry Registry, store Store, opts Options) (*Deserializer, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	d, err := newDeserializer(ctx, f, true, registry, store, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// NewWorkbookDeserializer binds the first sheet of an open workbook. The
// caller keeps ownership of f.
func NewWorkbookDeserializer(ctx context.Context, f *excelize.File, registry Registry, store Store, opts Options) (*Deserializer, error) {
	return newDeserializer(ctx, f, false, registry, store, opts)
}

func newDeserializer(ctx context.Context, f *excelize.File, owned bool, registry Registry, store Store, opts Options) (*Deserializer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := &Deserializer{
		opts:     opts,
		f:        f,
		owned:    owned,
		registry: registry,
		store:    store,
		reader:   parser.NewCellReader(f),
		decoder:  opts.decoder(store),
		sheets:   f.GetSheetList(),
		tables:   make(map[int]*parser.Table),
		now:      time.Now,
	}
	d.cur.sheet = -1
	if len(d.sheets) > 0 {
		if err := d.bind(0); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// table returns the header and row bounds of sheet i. Sheets without a
// header yield nil.
func (d *Deserializer) table(i int) (*parser.Table, error) {
	if t, ok := d.tables[i]; ok {
		return t, nil
	}
	name := d.sheets[i]
	scan, err := parser.ScanSheet(d.f, name)
	if err != nil {
		return nil, NewSchemaError(name, "", err)
	}

	layout := d.opts.layout()
	if layout == LayoutAuto {
		layout = d.detectLayout(scan)
	}
	t, err := scan.Table(layout.parserLayout())
	if errors.Is(err, parser.ErrNoHeader) {
		d.tables[i] = nil
		return nil, nil
	}
	if err != nil {
		return nil, NewSchemaError(name, "", err)
	}
	if t.Layout == parser.LayoutLegacy {
		log.Warn("legacy sheet layout is deprecated", "sheet", name, "model", t.Identifier)
	}
	d.tables[i] = t
	return t, nil
}

// detectLayout picks the legacy layout only when the sheet name is not a
// model and A1 alone names one.
func (d *Deserializer) detectLayout(scan *parser.SheetScan) Layout {
	if _, err := d.registry.Model(scan.Sheet); err == nil {
		return LayoutSheetName
	}
	id, ok := scan.LegacyIdentifier()
	if !ok {
		return LayoutSheetName
	}
	if _, err := d.registry.Model(id); err != nil {
		return LayoutSheetName
	}
	return LayoutLegacy
}

// bind makes sheet i current: it resolves the model, binds header columns to
// fields and resets the row cursor to the first data row.
func (d *Deserializer) bind(i int) error {
	name := d.sheets[i]
	d.cur = cursor{sheet: i}

	t, err := d.table(i)
	if err != nil {
		return err
	}
	if t == nil {
		log.Debug("skipping sheet without header", "sheet", name)
		return nil
	}

	m, columns, err := d.resolve(name, t)
	if err != nil {
		return err
	}

	d.cur.table = t
	d.cur.model = m
	d.cur.columns = columns
	d.cur.row = t.FirstRow()
	log.Debug("sheet bound", "sheet", name, "model", m.Label(), "layout", t.Layout.String(), "rows", t.DataRows)
	return nil
}

// resolve maps the header of t to the fields of its model.
func (d *Deserializer) resolve(name string, t *parser.Table) (*models.Model, []column, error) {
	m, err := d.registry.Model(t.Identifier)
	if err != nil {
		return nil, nil, NewSchemaError(name, "", err)
	}
	columns := make([]column, 0, len(t.Header))
	seen := make(map[string]bool, len(t.Header))
	for idx, header := range t.Header {
		f, ok := m.Field(header)
		if !ok {
			return nil, nil, NewSchemaError(name, header, fmt.Errorf("%w: %s", errUnknownField, m.Label()))
		}
		if seen[header] {
			return nil, nil, NewSchemaError(name, header, errDuplicateColumn)
		}
		seen[header] = true
		columns = append(columns, column{index: idx + 1, field: f})
	}
	return m, columns, nil
}

// HasNext reports whether the bound sheet has rows left or a later sheet
// has data rows. A later sheet that fails to resolve also counts, so that
// Next reports its error.
func (d *Deserializer) HasNext() bool {
	if d.cur.sheet < 0 {
		return false
	}
	if !d.cur.exhausted() {
		return true
	}
	for i := d.cur.sheet + 1; i < len(d.sheets); i++ {
		t, err := d.table(i)
		if err != nil {
			// Let Next report it.
			return true
		}
		if t == nil {
			continue
		}
		if t.DataRows > 0 {
			return true
		}
		if _, _, err := d.resolve(d.sheets[i], t); err != nil {
			return true
		}
	}
	return false
}

// advance binds the next sheet. It returns ErrNoMoreSheets after the last.
func (d *Deserializer) advance() error {
	next := d.cur.sheet + 1
	if d.cur.sheet < 0 || next >= len(d.sheets) {
		return ErrNoMoreSheets
	}
	return d.bind(next)
}

// Next decodes, builds and persists the next record. It returns io.EOF once
// every sheet is exhausted. A row that fails to decode is not retried.
func (d *Deserializer) Next(ctx context.Context) (*DeserializedObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for {
		for d.cur.exhausted() {
			if err := d.advance(); err != nil {
				if errors.Is(err, ErrNoMoreSheets) {
					return nil, io.EOF
				}
				return nil, err
			}
		}

		row := d.cur.row
		d.cur.row++
		values, blank, err := d.readRow(ctx, row)
		if err != nil {
			return nil, err
		}
		if blank {
			continue
		}
		return d.persist(ctx, values)
	}
}

func (d *Deserializer) readRow(ctx context.Context, row int) (models.Values, bool, error) {
	sheet := d.sheets[d.cur.sheet]
	cells, err := d.reader.ReadRow(sheet, row, len(d.cur.columns))
	if err != nil {
		return nil, false, err
	}

	blank := true
	values := make(models.Values, len(d.cur.columns))
	for _, col := range d.cur.columns {
		cell := cells[col.index-1]
		if !cell.IsEmpty() {
			blank = false
		}
		v, err := d.decoder.Decode(ctx, col.field, cell)
		if err != nil {
			name, _ := excelize.CoordinatesToCellName(cell.Col, cell.Row)
			return nil, false, NewCellError(sheet, name, cell.Row, cell.Col, col.field.Name, err)
		}
		values[col.field.Name] = v
	}
	return values, blank, nil
}

func (d *Deserializer) persist(ctx context.Context, values models.Values) (*DeserializedObject, error) {
	m := d.cur.model
	for _, f := range m.AutoFields() {
		if values[f.Name] == nil {
			values[f.Name] = d.timestamp()
		}
	}

	rec, err := d.store.Build(m, values)
	if err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	log.Trace("record persisted", "model", m.Label(), "pk", rec.PK())
	return &DeserializedObject{Object: rec, Relations: map[string][]any{}}, nil
}

func (d *Deserializer) timestamp() time.Time {
	now := d.now()
	if d.opts.UseTZ && d.opts.Location != nil {
		return now.In(d.opts.Location)
	}
	return now.UTC()
}

// All returns the remaining records as an iterator. Iteration stops after
// the first error.
func (d *Deserializer) All(ctx context.Context) iter.Seq2[*DeserializedObject, error] {
	return func(yield func(*DeserializedObject, error) bool) {
		for {
			obj, err := d.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(obj, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the workbook when the Deserializer opened it.
func (d *Deserializer) Close() error {
	if d.owned && d.f != nil {
		f := d.f
		d.f = nil
		return f.Close()
	}
	return nil
}
