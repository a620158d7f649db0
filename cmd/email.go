package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sheetdash/sheetdash/pkg/mail"
	"github.com/sheetdash/sheetdash/pkg/records"
)

// emailCmd represents the email command
var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Email a status summary to stakeholders",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetStringSlice("to")
		subject, _ := cmd.Flags().GetString("subject")

		if len(to) == 0 {
			to = viper.GetStringSlice("email.recipients")
		}
		if len(to) == 0 {
			return fmt.Errorf("no recipients: pass --to or set email.recipients in the config")
		}

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

		httpc, err := a.session.RequireClient(ctx)
		if err != nil {
			return err
		}

		msg := mail.Message{
			From:     viper.GetString("email.sender"),
			To:       to,
			Subject:  subject,
			HTMLBody: statusBody(projects),
		}
		if err := mail.NewSender().Send(ctx, httpc, msg); err != nil {
			return err
		}

		fmt.Printf("Sent status email to %s\n", strings.Join(to, ", "))
		return nil
	},
}

// statusBody renders the summary and per-project table as simple HTML.
func statusBody(projects []records.Project) string {
	s := records.Summarize(projects)

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Project status</h2>")
	fmt.Fprintf(&b, "<p>%d projects, %s total budget, %d%% average progress.</p>",
		s.TotalProjects, s.TotalBudget, s.AverageProgress)
	b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Project</th><th>Manager</th><th>Progress</th><th>Budget</th><th>Notes</th></tr>")
	for _, p := range projects {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%.0f%%</td><td>%s</td><td>%s</td></tr>",
			p.Name, p.Manager, p.Progress, p.Budget, p.Notes)
	}
	b.WriteString("</table>")
	return b.String()
}

func init() {
	rootCmd.AddCommand(emailCmd)
	emailCmd.Flags().StringSliceP("to", "t", nil, "Recipient addresses (repeatable)")
	emailCmd.Flags().StringP("subject", "s", "Project status update", "Email subject")
}
