package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drydock",
	Short: "Deployment platform CLI and MCP tool server",
	Long:  "Drydock — generate, validate, and deploy application manifests, and serve the same operations as MCP tools.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "", false, "Suppress all output except errors")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("drydock version %s\n", version))

	rootCmd.AddCommand(cli.NewValidateCmd())
	rootCmd.AddCommand(cli.NewRenderCmd())
	rootCmd.AddCommand(cli.NewScaffoldCmd())
	rootCmd.AddCommand(cli.NewDeployCmd())
	rootCmd.AddCommand(cli.NewReservationsCmd())
	rootCmd.AddCommand(cli.NewServeCmd(version))
}
