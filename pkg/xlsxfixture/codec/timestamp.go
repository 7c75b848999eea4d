package codec

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

// DateLayout is the text form of calendar dates.
const DateLayout = "2006-01-02"

// timestampPattern pairs a prefix expression with the layout used to parse
// text it matches. Fractional seconds are written after a colon, which Go
// layouts cannot express, so the separator is normalized to '.' first.
type timestampPattern struct {
	re       *regexp.Regexp
	layout   string
	fraction bool
}

// Order matters: the first pattern is the canonical encoder output.
var timestampPatterns = []timestampPattern{
	{
		re:       regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}.\d{6}[-+]\d{4}`),
		layout:   "2006-01-02T15:04:05.000000-0700",
		fraction: true,
	},
	{
		re:       regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}.\d{6}`),
		layout:   "2006-01-02 15:04:05.000000",
		fraction: true,
	},
	{
		re:     regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`),
		layout: "2006-01-02 15:04:05",
	},
}

// FormatTimestamp renders t as YYYY-MM-DDTHH:MM:SS:ffffff±HHMM.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") +
		fmt.Sprintf(":%06d", t.Nanosecond()/int(time.Microsecond)) +
		t.Format("-0700")
}

// ParseTimestamp parses s with the first known pattern that matches it.
// Text without an explicit offset is interpreted in loc. The second result
// is false when no pattern matches.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, p := range timestampPatterns {
		if !p.re.MatchString(s) {
			continue
		}
		v := s
		if p.fraction {
			v = s[:19] + "." + s[20:]
		}
		t, err := time.ParseInLocation(p.layout, v, loc)
		if err != nil {
			return time.Time{}, true, newConversionError(models.KindDateTime, s, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, nil
}

// truncateDate drops the time of day, keeping the wall-clock date.
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
