package codec

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Stringify returns the canonical string form of v.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return FormatTimestamp(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// CheckText reports ErrUnsafeText when s cannot be stored in a cell: invalid
// UTF-8, control characters other than tab and line breaks, non-characters,
// or more runes than a cell holds.
func CheckText(s string) error {
	if !utf8.ValidString(s) {
		return ErrUnsafeText
	}
	if utf8.RuneCountInString(s) > excelize.TotalCellChars {
		return fmt.Errorf("%w: longer than %d characters", ErrUnsafeText, excelize.TotalCellChars)
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return fmt.Errorf("%w: %U", ErrUnsafeText, r)
		}
	}
	return nil
}
