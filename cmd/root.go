package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sheetdash/sheetdash/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sheetdash",
	Short: "A project-tracking dashboard fed by a Google Sheet.",
	Long: `sheetdash keeps a local, periodically refreshed view of the project-tracking
spreadsheet your team maintains in Google Sheets, and can email status
summaries to stakeholders.

Run "sheetdash login" first to authorize access.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sheetdash.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("dbpath", "", "", "Path to the local database (default is ~/.config/sheetdash/sheetdash.sqlite)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".sheetdash")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.sheetdash.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("google.clientid", "")
	viper.SetDefault("google.clientsecret", "")
	viper.SetDefault("google.redirecturi", "http://localhost")
	viper.SetDefault("sheet.id", "")
	viper.SetDefault("sheet.name", "Sheet1")
	viper.SetDefault("sheet.range", "A1:G100")
	viper.SetDefault("refresh.interval", "60s")
	viper.SetDefault("cache.ttl", "60s")
	viper.SetDefault("email.sender", "")
	viper.SetDefault("email.recipients", []string{})

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
