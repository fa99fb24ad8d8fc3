package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ca-srg/minisearch/internal/config"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "minisearch",
	Short: "Mini Search Engine - web front end for a keyword search executable",
	Long: `minisearch serves a search page and a JSON API in front of an external
search engine executable. Every query runs the engine once as a child process;
its "body|flag" output is decoded into a single answer, a list of matches or a
no-match notice and rendered for the browser or the terminal.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format (json, console); overrides LOG_FORMAT")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
}
