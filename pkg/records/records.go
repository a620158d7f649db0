// Package records turns raw spreadsheet rows into typed project records.
package records

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Project is one derived project record. ID is the 1-based position of
// the row among retained rows of a single fetch, so it is only stable
// within one fetch generation; do not persist it across fetches.
type Project struct {
	ID            int
	Name          string
	Manager       string
	LastUpdatedOn string
	Budget        string
	PlanLink      string
	Progress      float64
	Notes         string
	RawRow        []string
}

// Column order of the source sheet after the header row.
const (
	colName = iota
	colManager
	colUpdated
	colBudget
	colPlanLink
	colProgress
	colNotes
)

// Parse converts raw rows into project records. The first row is the
// header and is always discarded; a row with an empty first cell is
// dropped entirely. Parse never fails: bad cells degrade per-field.
func Parse(rows [][]string) []Project {
	if len(rows) < 2 {
		return []Project{}
	}

	projects := make([]Project, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if cell(row, colName) == "" {
			continue
		}
		projects = append(projects, Project{
			ID:            len(projects) + 1,
			Name:          cell(row, colName),
			Manager:       cell(row, colManager),
			LastUpdatedOn: parseDate(cell(row, colUpdated)),
			Budget:        parseBudget(cell(row, colBudget)),
			PlanLink:      cell(row, colPlanLink),
			Progress:      parseProgress(cell(row, colProgress)),
			Notes:         cell(row, colNotes),
			RawRow:        row,
		})
	}
	return projects
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
	"Jan 2, 2006",
}

// parseDate formats recognized dates as MM/DD/YYYY; anything else is
// passed through unchanged.
func parseDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("01/02/2006")
		}
	}
	return s
}

var currencySymbols = "$€£¥"

// parseBudget normalizes a budget cell into a currency string with zero
// decimal places. Cells already carrying a currency symbol pass through.
func parseBudget(s string) string {
	if s == "" {
		return "$0"
	}
	if strings.ContainsAny(s, currencySymbols) {
		return s
	}
	n, ok := numericValue(s)
	if !ok {
		return s
	}
	return formatDollars(n)
}

func formatDollars(n float64) string {
	rounded := int64(math.Round(n))
	if rounded < 0 {
		return "-$" + humanize.Comma(-rounded)
	}
	return "$" + humanize.Comma(rounded)
}

// numericValue strips everything but digits, dots and minus signs and
// parses the remainder.
func numericValue(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseProgress parses a progress cell, stripping a trailing percent
// sign, and clamps the result into [0,100]. Non-numeric input yields 0.
func parseProgress(s string) float64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0
	}
	return math.Min(math.Max(n, 0), 100)
}
