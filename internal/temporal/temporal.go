package temporal

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// Present marks an open-ended interval.
	Present = "Present"

	labelPrefix = "Dates Employed"
)

// separators split a range into its bounds. The last one is an en dash read
// with the wrong encoding, which scraped exports contain.
var separators = []string{" – ", " — ", " â€“ ", "–", "—"}

var layouts = []string{
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"01/2006",
	"2006-01",
	"2006",
}

// Interval is a closed range of calendar months.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Intersects reports whether [start, end] shares at least one day with iv.
func (iv Interval) Intersects(start, end time.Time) bool {
	return !iv.Start.After(end) && !iv.End.Before(start)
}

// Parser turns scraped date-range strings into intervals.
type Parser struct {
	// Now resolves "Present". Defaults to time.Now.
	Now func() time.Time
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// ParseRange parses strings like "Dates Employed\nMay 2019 – Present".
// It reports false when the string is empty or any part fails to parse.
func (p Parser) ParseRange(s string) (Interval, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, labelPrefix))
	if s == "" || s == "None" {
		return Interval{}, false
	}

	var bounds []string
	for _, sep := range separators {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			bounds = parts
			break
		}
	}
	if bounds == nil {
		return Interval{}, false
	}

	start, ok := p.ParseDate(bounds[0])
	if !ok {
		return Interval{}, false
	}
	end, ok := p.ParseDate(bounds[1])
	if !ok {
		return Interval{}, false
	}
	if start.After(end) {
		return Interval{}, false
	}

	return Interval{Start: start, End: end}, true
}

// ParseDate parses one bound and truncates it to the first day of its month.
func (p Parser) ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.EqualFold(s, Present) {
		return monthStart(p.now()), true
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return monthStart(t), true
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return monthStart(t), true
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// YearGrid is the inclusive range of calendar years every interval is
// featurized against.
type YearGrid struct {
	Start int
	End   int
}

// DefaultGrid covers 1980 through 2020.
var DefaultGrid = YearGrid{Start: 1980, End: 2020}

func (g YearGrid) Len() int {
	if g.End < g.Start {
		return 0
	}
	return g.End - g.Start + 1
}

// Years lists the grid years in order.
func (g YearGrid) Years() []int {
	out := make([]int, 0, g.Len())
	for y := g.Start; y <= g.End; y++ {
		out = append(out, y)
	}
	return out
}

// Columns names the indicator columns of one source column.
func (g YearGrid) Columns(prefix string) []string {
	out := make([]string, 0, g.Len())
	for _, y := range g.Years() {
		out = append(out, prefix+"/"+strconv.Itoa(y))
	}
	return out
}

// Indicators marks every grid year whose [Jan 1, Dec 31] overlaps iv.
// Without an interval every indicator is zero.
func (g YearGrid) Indicators(iv Interval, ok bool) []int {
	out := make([]int, g.Len())
	if !ok {
		return out
	}
	for i, y := range g.Years() {
		yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		yearEnd := time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
		if iv.Intersects(yearStart, yearEnd) {
			out[i] = 1
		}
	}
	return out
}
