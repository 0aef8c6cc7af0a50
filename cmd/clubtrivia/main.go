package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "clubtrivia",
	Short: "A client for the club trivia daily games backend",
	Long: `A command-line client for the club trivia daily games: hydrates the
session, tracks attempts per club and game type, and caches the daily
game content on-device.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if jsonLogs {
			log.SetFormatter(log.JSONFormatter)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
