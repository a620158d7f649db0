package records

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var header = []string{"Name", "Mgr", "Date", "Budget", "Link", "Progress", "Notes"}

func TestParseScenarioRow(t *testing.T) {
	rows := [][]string{
		header,
		{"Alpha", "Bob", "2024-01-01", "1000", "http://x", "45%", "ok"},
	}

	got := Parse(rows)
	require.Len(t, got, 1)

	p := got[0]
	require.Equal(t, 1, p.ID)
	require.Equal(t, "Alpha", p.Name)
	require.Equal(t, "Bob", p.Manager)
	require.Equal(t, "01/01/2024", p.LastUpdatedOn)
	require.Equal(t, "$1,000", p.Budget)
	require.Equal(t, "http://x", p.PlanLink)
	require.Equal(t, 45.0, p.Progress)
	require.Equal(t, "ok", p.Notes)
	require.Equal(t, rows[1], p.RawRow)
}

func TestParseDropsHeaderAndEmptyNameRows(t *testing.T) {
	rows := [][]string{
		header,
		{"", "Alice", "2024-01-01", "100", "", "10", ""},
		{"Beta", "Carol", "", "", "", "", ""},
		{"Gamma", "Dave", "", "", "", "", ""},
	}

	got := Parse(rows)
	require.Len(t, got, 2)
	require.Equal(t, "Beta", got[0].Name)
	require.Equal(t, "Gamma", got[1].Name)

	// IDs are 1-based among retained rows, not source row positions.
	require.Equal(t, 1, got[0].ID)
	require.Equal(t, 2, got[1].ID)
}

func TestParseHeaderOnly(t *testing.T) {
	require.Empty(t, Parse([][]string{header}))
	require.Empty(t, Parse(nil))
}

func TestParseProgressClamp(t *testing.T) {
	cases := map[string]float64{
		"-5":   0,
		"0":    0,
		"45":   45,
		"80%":  80,
		"150":  100,
		"abc":  0,
		"":     0,
		"62.5": 62.5,
	}
	for in, want := range cases {
		require.Equal(t, want, parseProgress(in), "input %q", in)
	}
}

func TestParseBudget(t *testing.T) {
	cases := map[string]string{
		"":          "$0",
		"1000":      "$1,000",
		"1,000":     "$1,000",
		"$1234":     "$1234", // already formatted: pass through
		"€500":      "€500",
		"1234567":   "$1,234,567",
		"about 250": "$250",
		"TBD":       "TBD", // nothing numeric left: pass through
		"999.6":     "$1,000",
	}
	for in, want := range cases {
		require.Equal(t, want, parseBudget(in), "input %q", in)
	}
}

func TestParseDatePassthrough(t *testing.T) {
	require.Equal(t, "01/15/2024", parseDate("2024-01-15"))
	require.Equal(t, "03/04/2024", parseDate("3/4/2024"))
	require.Equal(t, "next sprint", parseDate("next sprint"))
	require.Equal(t, "", parseDate(""))
}

func TestParseShortRows(t *testing.T) {
	rows := [][]string{
		header,
		{"Alpha"},
	}
	got := Parse(rows)
	require.Len(t, got, 1)
	require.Equal(t, "Alpha", got[0].Name)
	require.Equal(t, "$0", got[0].Budget)
	require.Equal(t, 0.0, got[0].Progress)
}

func TestSummarize(t *testing.T) {
	projects := []Project{
		{Budget: "$1,000", Progress: 20},
		{Budget: "$2,000", Progress: 50},
		{Budget: "$3,000", Progress: 95},
	}

	s := Summarize(projects)
	require.Equal(t, 3, s.TotalProjects)
	require.Equal(t, "$6,000", s.TotalBudget)
	require.Equal(t, 55, s.AverageProgress)
	require.Equal(t, 1, s.LowProgress)
	require.Equal(t, 1, s.MediumProgress)
	require.Equal(t, 1, s.HighProgress)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	require.Equal(t, 0, s.TotalProjects)
	require.Equal(t, "$0", s.TotalBudget)
	require.Equal(t, 0, s.AverageProgress)
}
