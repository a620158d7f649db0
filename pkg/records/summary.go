package records

import "math"

// Summary aggregates a record set for the dashboard header and status
// emails.
type Summary struct {
	TotalProjects   int
	TotalBudget     string
	AverageProgress int

	// Progress buckets: low < 40, 40 <= medium < 80, high >= 80.
	LowProgress    int
	MediumProgress int
	HighProgress   int
}

// Summarize computes the aggregate view of a record set.
func Summarize(projects []Project) Summary {
	s := Summary{TotalProjects: len(projects)}

	var totalBudget, totalProgress float64
	for _, p := range projects {
		if n, ok := numericValue(p.Budget); ok {
			totalBudget += n
		}
		totalProgress += p.Progress

		switch {
		case p.Progress < 40:
			s.LowProgress++
		case p.Progress < 80:
			s.MediumProgress++
		default:
			s.HighProgress++
		}
	}

	s.TotalBudget = formatDollars(totalBudget)
	if len(projects) > 0 {
		s.AverageProgress = int(math.Round(totalProgress / float64(len(projects))))
	}
	return s
}
