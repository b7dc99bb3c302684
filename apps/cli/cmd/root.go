package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fetchwrap",
	Short: "A small HTTP client with before and after hooks.",
	Long: `fetchwrap sends HTTP requests against a base URL and runs them
through a pipeline of hooks: default headers, auth, request ids,
rate limiting, logging and history recording.

Configuration is read from .fetchwrap.yaml, FETCHWRAP_* environment
variables and command line flags, in increasing order of precedence.`,
	SilenceUsage: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(newRequestCmd())
	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		rootCmd.AddCommand(newMethodCmd(method))
	}
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
