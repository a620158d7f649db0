package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		id, ok, err := a.identity.Load(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Not signed in.")
			return nil
		}
		if id.Name != "" {
			fmt.Printf("%s <%s>\n", id.Name, id.Email)
		} else {
			fmt.Println(id.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
