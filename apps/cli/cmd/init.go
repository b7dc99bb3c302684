package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/fetchwrap/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter .fetchwrap.yaml",
	Long: `Create a .fetchwrap.yaml configuration file in the current directory.

Values can reference environment variables as ${NAME}; a .env file next
to the config is loaded first.

Examples:
  fetchwrap init
  fetchwrap init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return usageError(fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile))
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://localhost:3000"
	cfg.RequestIDHeader = "X-Request-Id"
	cfg.Headers = map[string]string{
		"User-Agent":    "fetchwrap/" + version,
		"Authorization": "Bearer ${API_TOKEN}",
	}

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nfetchwrap initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'fetchwrap get /health' to send a first request.\n")

	return nil
}
