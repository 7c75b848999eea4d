package codec

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

var clockDuration = regexp.MustCompile(`^(?:(\d+) (?:days?,? )?)?(\d+):(\d{2}):(\d{2})(?:\.(\d{1,6}))?$`)

// Clean coerces v to the Go type of the field kind. Record constructors use
// it to turn decoded or stored values into typed values.
func Clean(field *models.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch field.Kind {
	case models.KindIdentifier:
		if s, ok := v.(string); ok {
			return rawKey(s), nil
		}
		return cleanInt(field.Kind, v)
	case models.KindInteger:
		return cleanInt(field.Kind, v)
	case models.KindBoolean:
		return cleanBool(v)
	case models.KindText:
		return Stringify(v), nil
	case models.KindDecimal:
		return cleanDecimal(v)
	case models.KindDuration:
		return cleanDuration(v)
	case models.KindDateTime:
		return cleanDateTime(v)
	case models.KindDate:
		return cleanDate(v)
	case models.KindRelation:
		if rec, ok := v.(*models.Record); ok {
			return rec, nil
		}
		if s, ok := v.(string); ok {
			return rawKey(s), nil
		}
		return cleanInt(field.Kind, v)
	}
	return v, nil
}

func cleanInt(kind models.FieldKind, v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, newConversionError(kind, v, nil)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, newConversionError(kind, v, nil)
		}
		return int64(x), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, newConversionError(kind, v, err)
		}
		return i, nil
	}
	return nil, newConversionError(kind, v, nil)
}

func cleanBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil, newConversionError(models.KindBoolean, v, err)
		}
		return b, nil
	}
	return nil, newConversionError(models.KindBoolean, v, nil)
}

func cleanDecimal(v any) (any, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return nil, newConversionError(models.KindDecimal, v, err)
		}
		return d, nil
	}
	return nil, newConversionError(models.KindDecimal, v, nil)
}

func cleanDuration(v any) (any, error) {
	switch x := v.(type) {
	case time.Duration:
		return x, nil
	case int64:
		return time.Duration(x), nil
	case int:
		return time.Duration(x), nil
	case string:
		return ParseDuration(x)
	}
	return nil, newConversionError(models.KindDuration, v, nil)
}

// ParseDuration accepts Go duration syntax ("1h30m") and the clock form
// "[D ]HH:MM:SS[.ffffff]".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	m := clockDuration.FindStringSubmatch(s)
	if m == nil {
		return 0, newConversionError(models.KindDuration, s, nil)
	}
	var d time.Duration
	if m[1] != "" {
		days, _ := strconv.Atoi(m[1])
		d += time.Duration(days) * 24 * time.Hour
	}
	h, _ := strconv.Atoi(m[2])
	mi, _ := strconv.Atoi(m[3])
	sec, _ := strconv.Atoi(m[4])
	d += time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second
	if m[5] != "" {
		frac := m[5] + strings.Repeat("0", 6-len(m[5]))
		us, _ := strconv.Atoi(frac)
		d += time.Duration(us) * time.Microsecond
	}
	return d, nil
}

func cleanDateTime(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		if t, ok, err := ParseTimestamp(x, time.UTC); ok {
			if err != nil {
				return nil, err
			}
			return t, nil
		}
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(x))
		if err != nil {
			return nil, newConversionError(models.KindDateTime, v, err)
		}
		return t, nil
	}
	return nil, newConversionError(models.KindDateTime, v, nil)
}

func cleanDate(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return truncateDate(x), nil
	case string:
		s := strings.TrimSpace(x)
		if len(s) > len(DateLayout) {
			s = s[:len(DateLayout)]
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, newConversionError(models.KindDate, v, err)
		}
		return t, nil
	}
	return nil, newConversionError(models.KindDate, v, nil)
}

// BuildRecord creates an unsaved record of m, coercing each value with Clean.
// Values for undeclared fields are rejected.
func BuildRecord(m *models.Model, values models.Values) (*models.Record, error) {
	rec := models.NewRecord(m, nil)
	for name, v := range values {
		f, ok := m.Field(name)
		if !ok {
			return nil, fmt.Errorf("%s has no field named %q", m.Label(), name)
		}
		cleaned, err := Clean(f, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Label(), name, err)
		}
		rec.Values[name] = cleaned
	}
	return rec, nil
}
