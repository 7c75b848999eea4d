package xlsxfixture

import (
	"bytes"
	"context"
	"iter"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/store/memory"
	"github.com/xuri/excelize/v2"
)

func objects(records ...*models.Record) iter.Seq2[models.Object, error] {
	return func(yield func(models.Object, error) bool) {
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func TestSerializeWritesHeaderAndRows(t *testing.T) {
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")

	s := NewSerializer(DefaultOptions())
	require.NoError(t, s.Start())
	assert.Equal(t, "", s.ActiveSheet())

	for i, name := range []string{"Person 1", "Person 2"} {
		rec := models.NewRecord(person, models.Values{"id": int64(i + 1), "name": name, "age": int64(21 + i)})
		require.NoError(t, s.BeginRecord(rec))
		assert.Equal(t, i+2, s.Row())
		require.NoError(t, s.WriteField(rec, person.Fields[1]))
		require.NoError(t, s.WriteField(rec, person.Fields[2]))
	}

	f := s.File()
	assert.Equal(t, "myapp.Person", s.ActiveSheet())
	assert.Equal(t, []string{"myapp.Person"}, f.GetSheetList())
	rows, err := f.GetRows("myapp.Person")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "age"},
		{"1", "Person 1", "21"},
		{"2", "Person 2", "22"},
	}, rows)

	typ, err := f.GetCellType("myapp.Person", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeNumber, typ, "integers fall back to text")

	styleID, err := f.GetCellStyle("myapp.Person", "A1")
	require.NoError(t, err)
	assert.NotZero(t, styleID, "header is styled by default")

	var buf bytes.Buffer
	require.NoError(t, s.Finish(&buf))
	assert.NotZero(t, buf.Len())
	assert.Nil(t, s.File())
}

func TestSerializeFieldOrderIndependent(t *testing.T) {
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")

	s := NewSerializer(DefaultOptions())
	require.NoError(t, s.Start())
	rec := models.NewRecord(person, models.Values{"id": int64(1), "name": "Person 1", "age": int64(30)})
	require.NoError(t, s.BeginRecord(rec))
	require.NoError(t, s.WriteField(rec, person.Fields[2]))
	require.NoError(t, s.WriteField(rec, person.Fields[1]))

	assert.Equal(t, "Person 1", cellValue(t, s.File(), "myapp.Person", "B2"))
	assert.Equal(t, "30", cellValue(t, s.File(), "myapp.Person", "C2"))
}

func TestSerializePerSheetRowCursors(t *testing.T) {
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")
	ingredient := testModel(t, r, "myapp.Ingredient")

	s := NewSerializer(DefaultOptions())
	require.NoError(t, s.Start())
	records := []*models.Record{
		models.NewRecord(person, models.Values{"id": int64(1), "name": "a"}),
		models.NewRecord(ingredient, models.Values{"id": int64(1), "name": "Salt"}),
		models.NewRecord(person, models.Values{"id": int64(2), "name": "b"}),
	}
	for _, rec := range records {
		require.NoError(t, s.serializeObject(rec))
	}

	f := s.File()
	assert.Equal(t, []string{"myapp.Person", "myapp.Ingredient"}, f.GetSheetList())
	assert.Equal(t, "b", cellValue(t, f, "myapp.Person", "B3"))
	assert.Equal(t, "Salt", cellValue(t, f, "myapp.Ingredient", "B2"))
	assert.Equal(t, "", cellValue(t, f, "myapp.Ingredient", "B3"))
	assert.Equal(t, 0, f.GetActiveSheetIndex())
}

func TestSerializeNaturalKeys(t *testing.T) {
	r := testRegistry(t)
	ingredient := testModel(t, r, "myapp.Ingredient")

	opts := DefaultOptions()
	opts.UseNaturalPrimaryKeys = true
	opts.HeaderStyle = Bool(false)
	s := NewSerializer(opts)
	require.NoError(t, s.Start())
	rec := models.NewRecord(ingredient, models.Values{"id": int64(9), "name": "Salt"})
	require.NoError(t, s.serializeObject(rec))

	rows, err := s.File().GetRows("myapp.Ingredient")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"name", "added"}, rows[0])
	assert.Equal(t, []string{"Salt"}, rows[1])

	styleID, err := s.File().GetCellStyle("myapp.Ingredient", "A1")
	require.NoError(t, err)
	assert.Zero(t, styleID)
}

func TestSerializeUnsafeText(t *testing.T) {
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")

	s := NewSerializer(DefaultOptions())
	require.NoError(t, s.Start())
	rec := models.NewRecord(person, models.Values{"id": int64(3), "name": "bad\x01name"})
	require.NoError(t, s.BeginRecord(rec))

	err := s.WriteField(rec, person.Fields[1])
	require.ErrorIs(t, err, ErrValue)
	var valueErr *UnserializableValueError
	require.ErrorAs(t, err, &valueErr)
	assert.Equal(t, "myapp.Person", valueErr.Model)
	assert.Equal(t, "name", valueErr.Field)
	assert.Equal(t, int64(3), valueErr.PK)
	assert.Equal(t, "myapp.Person.name (pk:3) contains unserializable characters", err.Error())
}

func TestSerializeUnsupportedKinds(t *testing.T) {
	m := &models.Model{App: "myapp", Name: "Doc", Fields: []*models.Field{
		{Name: "id", Kind: models.KindIdentifier},
		{Name: "payload", Kind: "json"},
	}}
	rec := models.NewRecord(m, models.Values{"id": int64(1), "payload": map[string]int{"a": 1}})

	s := NewSerializer(DefaultOptions())
	require.NoError(t, s.Start())
	require.NoError(t, s.serializeObject(rec))
	assert.Equal(t, "map[a:1]", cellValue(t, s.File(), "myapp.Doc", "B2"))

	opts := DefaultOptions()
	opts.UnsupportedKinds = KindPolicyReject
	s = NewSerializer(opts)
	require.NoError(t, s.Start())
	err := s.BeginRecord(rec)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	var serErr *SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Equal(t, "payload", serErr.Field)
}

func TestSerializeStateErrors(t *testing.T) {
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")
	ingredient := testModel(t, r, "myapp.Ingredient")
	rec := models.NewRecord(person, models.Values{"id": int64(1)})

	s := NewSerializer(DefaultOptions())
	assert.ErrorIs(t, s.BeginRecord(rec), ErrNotStarted)
	assert.ErrorIs(t, s.WriteField(rec, person.Fields[1]), ErrNotStarted)
	assert.ErrorIs(t, s.Finish(&bytes.Buffer{}), ErrNotStarted)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.WriteField(rec, person.Fields[1]), ErrNoActiveSheet)

	require.NoError(t, s.BeginRecord(rec))
	other := models.NewRecord(ingredient, models.Values{"name": "Salt"})
	var serErr *SerializationError
	assert.ErrorAs(t, s.WriteField(other, ingredient.Fields[1]), &serErr)

	orphan := &models.Record{Values: models.Values{"name": "Nobody"}}
	require.NotPanics(t, func() {
		assert.ErrorAs(t, s.WriteField(orphan, person.Fields[1]), &serErr)
		assert.ErrorAs(t, s.WriteRelationField(orphan, person.Fields[1]), &serErr)
		assert.Error(t, s.BeginRecord(orphan))
	})
}

func TestFinishConsoleWithoutRecords(t *testing.T) {
	opts := DefaultOptions()
	opts.Console = Bool(true)
	s := NewSerializer(opts)
	require.NoError(t, s.Start())

	var buf bytes.Buffer
	assert.ErrorIs(t, s.Finish(&buf), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestFinishConsoleWritesCSV(t *testing.T) {
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")

	opts := DefaultOptions()
	opts.Console = Bool(true)
	var buf bytes.Buffer
	err := NewSerializer(opts).Serialize(&buf, objects(
		models.NewRecord(person, models.Values{"id": int64(1), "name": `Henrique "Rick"`, "age": int64(21)}),
		models.NewRecord(person, models.Values{"id": int64(2), "name": "Person 2"}),
	))
	require.NoError(t, err)
	assert.Equal(t, `"id","name","age"`+"\n"+
		`"1","Henrique ""Rick""","21"`+"\n"+
		`"2","Person 2",`+"\n", buf.String())
}

func TestFinishBinaryWithoutRecords(t *testing.T) {
	s := NewSerializer(DefaultOptions())
	require.NoError(t, s.Start())
	var buf bytes.Buffer
	require.NoError(t, s.Finish(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")
	recipe := testModel(t, r, "myapp.Recipe")

	owner := models.NewRecord(person, models.Values{"id": int64(1), "name": "Person 1", "age": int64(21)})
	created := time.Date(2024, 3, 5, 10, 30, 15, 123456000, time.FixedZone("", 2*60*60))
	soup := models.NewRecord(recipe, models.Values{
		"id":           int64(10),
		"name":         "Soup",
		"servings":     int64(4),
		"price":        decimal.RequireFromString("12.50"),
		"vegetarian":   true,
		"cooking_time": 90 * time.Minute,
		"published":    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"created_at":   created,
		"owner":        owner,
	})

	var buf bytes.Buffer
	require.NoError(t, NewSerializer(DefaultOptions()).Serialize(&buf, objects(owner, soup)))

	store := memory.New()
	d, err := NewDeserializer(ctx, &buf, r, store, DefaultOptions())
	require.NoError(t, err)
	defer d.Close()
	records := collect(t, d)
	require.Len(t, records, 2)

	gotOwner, gotSoup := records[0], records[1]
	assert.Equal(t, owner.Values, gotOwner.Values)

	v := gotSoup.Values
	assert.Equal(t, int64(10), v["id"])
	assert.Equal(t, "Soup", v["name"])
	assert.Equal(t, int64(4), v["servings"])
	assert.True(t, decimal.RequireFromString("12.50").Equal(v["price"].(decimal.Decimal)))
	assert.Equal(t, true, v["vegetarian"])
	assert.Equal(t, 90*time.Minute, v["cooking_time"])
	assert.True(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(v["published"].(time.Time)))
	assert.True(t, created.Equal(v["created_at"].(time.Time)), "got %v", v["created_at"])
	assert.Same(t, gotOwner, v["owner"])
}

func TestRoundTripEarlyDates(t *testing.T) {
	ctx := context.Background()
	r := testRegistry(t)
	recipe := testModel(t, r, "myapp.Recipe")

	dates := []time.Time{
		time.Date(1850, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	objs := make([]*models.Record, 0, len(dates))
	for i, date := range dates {
		objs = append(objs, models.NewRecord(recipe, models.Values{
			"id":        int64(i + 1),
			"name":      "Soup",
			"published": date,
		}))
	}

	var buf bytes.Buffer
	require.NoError(t, NewSerializer(DefaultOptions()).Serialize(&buf, objects(objs...)))

	d, err := NewDeserializer(ctx, &buf, r, memory.New(), DefaultOptions())
	require.NoError(t, err)
	defer d.Close()
	records := collect(t, d)
	require.Len(t, records, len(dates))
	for i, date := range dates {
		got, ok := records[i].Values["published"].(time.Time)
		require.True(t, ok, "published of %s is %T", date, records[i].Values["published"])
		assert.True(t, date.Equal(got), "want %s, got %s", date, got)
	}
}

func TestRoundTripDecodedKinds(t *testing.T) {
	ctx := context.Background()
	r := testRegistry(t)
	person := testModel(t, r, "myapp.Person")

	var buf bytes.Buffer
	require.NoError(t, NewSerializer(DefaultOptions()).Serialize(&buf, objects(
		models.NewRecord(person, models.Values{"id": int64(1), "name": "Person 1", "age": int64(21)}),
	)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	d, err := NewWorkbookDeserializer(ctx, f, r, memory.New(), DefaultOptions())
	require.NoError(t, err)
	values, blank, err := d.readRow(ctx, 2)
	require.NoError(t, err)
	require.False(t, blank)
	assert.Equal(t, int64(1), values["id"], "identifiers keep their native type")
	assert.Equal(t, "21", values["age"], "integers degrade to text")
}
