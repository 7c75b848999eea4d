package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2019, 12, 31, 23, 59, 58, 1000, time.FixedZone("", -5*3600-30*60))
	assert.Equal(t, "2019-12-31T23:59:58:000001-0530", FormatTimestamp(ts))
}

func TestTimestampRoundTrip(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("", 9*3600),
		time.FixedZone("", -3*3600-30*60),
	}
	for _, loc := range zones {
		v := time.Date(2023, 7, 14, 8, 15, 42, 987654321, loc)
		got, ok, err := ParseTimestamp(FormatTimestamp(v), time.UTC)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, v.Truncate(time.Microsecond).Equal(got), "%v != %v", v, got)
	}
}

func TestParseTimestampPatterns(t *testing.T) {
	tests := []struct {
		input    string
		matched  bool
		expected time.Time
	}{
		{"2024-01-02T03:04:05:000006+0100", true, time.Date(2024, 1, 2, 2, 4, 5, 6000, time.UTC)},
		{"2024-01-02 03:04:05:000006", true, time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)},
		{"2024-01-02 03:04:05", true, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02", false, time.Time{}},
		{"not a date", false, time.Time{}},
	}

	for _, tt := range tests {
		got, ok, err := ParseTimestamp(tt.input, time.UTC)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.matched, ok, tt.input)
		if ok {
			assert.True(t, tt.expected.Equal(got), "ParseTimestamp(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseTimestampMatchedButInvalid(t *testing.T) {
	_, ok, err := ParseTimestamp("2024-13-45 03:04:05", time.UTC)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
	}{
		{"1h30m", 90 * time.Minute},
		{"01:30:00", 90 * time.Minute},
		{"2 00:00:01.5", 48*time.Hour + time.Second + 500*time.Millisecond},
		{"3 days, 00:00:00", 72 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}

	_, err := ParseDuration("soon")
	assert.ErrorIs(t, err, ErrConversion)
}

func TestClean(t *testing.T) {
	tests := []struct {
		kind     models.FieldKind
		input    any
		expected any
	}{
		{models.KindInteger, "21", int64(21)},
		{models.KindInteger, float64(3), int64(3)},
		{models.KindIdentifier, "7", int64(7)},
		{models.KindIdentifier, "abc", "abc"},
		{models.KindBoolean, int64(1), true},
		{models.KindBoolean, "False", false},
		{models.KindText, []byte("bytes"), "bytes"},
		{models.KindDuration, "00:00:02", 2 * time.Second},
		{models.KindDuration, int64(time.Second), time.Second},
		{models.KindDate, "2024-05-06", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
		{models.KindRelation, "4", int64(4)},
		{models.KindIdentifier, nil, nil},
	}
	for _, tt := range tests {
		got, err := Clean(&models.Field{Name: "f", Kind: tt.kind}, tt.input)
		require.NoError(t, err, "%s %v", tt.kind, tt.input)
		assert.Equal(t, tt.expected, got, "%s %v", tt.kind, tt.input)
	}

	_, err := Clean(&models.Field{Name: "age", Kind: models.KindInteger}, "old")
	assert.ErrorIs(t, err, ErrConversion)
}

func TestBuildRecord(t *testing.T) {
	m := &models.Model{App: "myapp", Name: "Person", Fields: []*models.Field{
		{Name: "id", Kind: models.KindIdentifier},
		{Name: "age", Kind: models.KindInteger},
	}}

	rec, err := BuildRecord(m, models.Values{"id": "7", "age": "21"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.PK())
	assert.Equal(t, int64(21), rec.Values["age"])

	_, err = BuildRecord(m, models.Values{"nickname": "x"})
	assert.ErrorContains(t, err, `no field named "nickname"`)

	_, err = BuildRecord(m, models.Values{"age": "old"})
	assert.ErrorIs(t, err, ErrConversion)
}
