package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sheetdash/sheetdash/internal/utils"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if err := a.session.SignOut(ctx); err != nil {
			return err
		}
		if err := a.identity.Clear(ctx); err != nil {
			utils.Log.Warn("Could not clear stored identity: ", err)
		}
		// Never let a later session see this session's cached rows.
		a.cache.Clear()

		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
