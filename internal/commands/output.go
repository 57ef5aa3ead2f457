package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"finance-tracker/internal/models"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

// money formats cents with thousands separators, e.g. 1,234.50.
func money(c models.Cents) string {
	return humanize.FormatFloat("#,###.##", c.Decimal().InexactFloat64())
}

// ago formats a past time relative to now, e.g. "3 days ago".
func ago(t time.Time) string {
	return humanize.Time(t)
}

func formatGroupTitle(date time.Time) string {
	dateStr := date.Format("2006-01-02")
	nowStr := time.Now().Format("2006-01-02")

	if dateStr == nowStr {
		return "TODAY"
	}
	yesterdayStr := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if dateStr == yesterdayStr {
		return "YESTERDAY"
	}
	return strings.ToUpper(date.Format("Mon, 02 Jan '06"))
}

// parseDate accepts the same layouts as the API.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := models.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
