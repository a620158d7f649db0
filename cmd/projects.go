package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sheetdash/sheetdash/pkg/records"
)

// projectsCmd represents the projects command
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the tracked projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		forceRefresh, _ := cmd.Flags().GetBool("refresh")

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

		var projects []records.Project
		if forceRefresh {
			projects, err = a.sched.RefreshNow(ctx)
		} else {
			projects, err = a.cache.GetOrFetch(ctx, false)
		}
		if err != nil {
			return err
		}

		printProjects(projects)
		return nil
	},
}

func printProjects(projects []records.Project) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMANAGER\tPROGRESS\tBUDGET\tUPDATED\tNOTES")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f%%\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Manager, p.Progress, p.Budget, p.LastUpdatedOn, p.Notes)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.Flags().BoolP("refresh", "r", false, "Force a refresh instead of serving cached data")
}
