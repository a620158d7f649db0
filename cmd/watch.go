package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/sheetdash/sheetdash/internal/utils"
	"github.com/sheetdash/sheetdash/pkg/records"
	"github.com/sheetdash/sheetdash/pkg/refresh"
	"github.com/spf13/viper"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the dashboard refreshed in the foreground",
	Long: `Runs the periodic refresh loop and reprints the project table whenever a
refresh succeeds. Stops with Ctrl-C. If the session expires, the loop
suspends until you sign in again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ok, err := a.session.Restore(ctx); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("not signed in. Run 'sheetdash login' first")
		}

		sched := refresh.New(refresh.Config{
			Session:  a.session,
			Cache:    a.cache,
			Interval: viper.GetDuration("refresh.interval"),
			Log:      utils.Log,
			OnUpdate: func(recs []records.Project) {
				fmt.Printf("\n--- %s ---\n", time.Now().Format("15:04:05"))
				printProjects(recs)
			},
		})

		sched.Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
