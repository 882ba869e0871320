package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/manifest"
)

// NewRenderCmd creates the "render" subcommand. It parses a manifest file
// and emits the canonical rendering, normalizing the legacy sibling-pods
// layout and any formatting drift.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Re-emit a manifest file in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}

	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	data, err := os.ReadFile(filePath) // #nosec G304 -- path from user CLI flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", filePath)
		}
		return fmt.Errorf("reading file: %w", err)
	}

	app, err := manifest.Parse(data)
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	text := manifest.Render(app)
	if outputPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(text), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputPath)
	return nil
}
