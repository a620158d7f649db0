package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sheetdash/sheetdash/pkg/records"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show an aggregate view of all projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if ok, err := a.session.Restore(ctx); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("not signed in. Run 'sheetdash login' first")
		}

		projects, err := a.cache.GetOrFetch(ctx, false)
		if err != nil {
			return err
		}

		s := records.Summarize(projects)
		fmt.Printf("Projects:         %d\n", s.TotalProjects)
		fmt.Printf("Total budget:     %s\n", s.TotalBudget)
		fmt.Printf("Average progress: %d%%\n", s.AverageProgress)
		fmt.Printf("Progress spread:  %d behind (<40%%), %d underway (40-80%%), %d nearly done (>=80%%)\n",
			s.LowProgress, s.MediumProgress, s.HighProgress)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
