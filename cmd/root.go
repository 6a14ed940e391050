// Package cmd implements the command-line interface for backlinkd.
// It provides the root command and subcommands for running the service and
// performing one-off backlink checks.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/madx/backlinkd/cmd/check"
	"github.com/madx/backlinkd/cmd/serve"
	"github.com/madx/backlinkd/internal/config"
)

// Version is set at build time.
var Version = "1.0.0"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "backlinkd",
		Short: "A backlink verification service",
		Long: `backlinkd verifies that claimed backlinks actually exist: it fetches
source pages, scans them for links to the target URL with matching anchor
text, and streams per-item progress to observers in real time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Parse flags early so --config is honored during initialization
	_ = rootCmd.ParseFlags(os.Args[1:])

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := config.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("backlinkd version %s\n", Version)
		},
	})

	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(check.Command())
}
