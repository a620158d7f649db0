package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sheetdash/sheetdash/internal/utils"
	"github.com/sheetdash/sheetdash/pkg/auth"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to the spreadsheet",
	Long: `Prints the authorization URL, then exchanges the one-time code you paste
back for credentials that are stored locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if ok, err := a.session.Restore(ctx); err == nil && ok {
			fmt.Println("Already signed in. Run 'sheetdash logout' first to switch accounts.")
			return nil
		}

		url, err := a.session.AuthURL()
		if err != nil {
			return err
		}

		fmt.Println("Open this URL in your browser and grant access:")
		fmt.Println()
		fmt.Println("  " + url)
		fmt.Println()
		fmt.Print("Paste the authorization code here: ")

		reader := bufio.NewReader(os.Stdin)
		code, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return fmt.Errorf("no authorization code provided")
		}

		creds, err := a.session.Authenticate(ctx, code)
		if err != nil {
			return err
		}

		if creds.IDToken != "" {
			if id, err := auth.DecodeIdentity(creds.IDToken); err == nil {
				if err := a.identity.Save(ctx, id); err != nil {
					utils.Log.Warn("Could not store identity: ", err)
				}
				fmt.Printf("Signed in as %s\n", id.Email)
				return nil
			}
		}
		fmt.Println("Signed in.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
