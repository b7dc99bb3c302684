package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recorded requests",
	Long: `Show requests recorded with --history (or history_path in the config).

Examples:
  fetchwrap history --history requests.db
  fetchwrap history --limit 5 -o json
  fetchwrap history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", getEnvInt("FETCHWRAP_HISTORY_LIMIT", 20), "Number of entries to show, 0 for all (env: FETCHWRAP_HISTORY_LIMIT)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded entries")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.history == nil {
		return configError(fmt.Errorf("no history file configured (use --history or history_path)"))
	}

	ctx := cmd.Context()
	if historyClear {
		n, err := s.history.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
		return nil
	}

	recordings, err := s.history.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	return s.formatter.FormatHistory(recordings)
}
