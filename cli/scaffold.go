package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/manifest"
	"github.com/seaway-labs/drydock/scaffold"
)

// NewScaffoldCmd creates the "scaffold" subcommand.
func NewScaffoldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scaffold <dir>",
		Short: "Generate starter project files for deployment",
		Args:  cobra.ExactArgs(1),
		RunE:  runScaffold,
	}

	cmd.Flags().String("app", "", "Application name (required)")
	cmd.Flags().String("framework", "go", "Project framework: go | node | python | static")
	cmd.Flags().String("image", "", "Image reference for the manifest (default <app>:0.1.0)")
	cmd.Flags().IntSlice("port", nil, "Service port (repeatable)")
	cmd.Flags().StringArray("var", nil, "Environment variable KEY=VALUE (repeatable)")
	cmd.Flags().Bool("force", false, "Overwrite existing files")
	_ = cmd.MarkFlagRequired("app")

	return cmd
}

func runScaffold(cmd *cobra.Command, args []string) error {
	dir := args[0]
	appName, _ := cmd.Flags().GetString("app")
	frameworkName, _ := cmd.Flags().GetString("framework")
	image, _ := cmd.Flags().GetString("image")
	ports, _ := cmd.Flags().GetIntSlice("port")
	varFlags, _ := cmd.Flags().GetStringArray("var")
	force, _ := cmd.Flags().GetBool("force")

	framework, err := scaffold.ParseFramework(frameworkName)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}
	vars, err := parseVarFlags(varFlags)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}

	written, err := scaffold.Generate(dir, scaffold.Options{
		AppName:   appName,
		Framework: framework,
		Image:     image,
		Ports:     ports,
		Vars:      vars,
		Force:     force,
	})
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	out := cmd.OutOrStdout()
	for _, path := range written {
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}

// parseVarFlags converts repeated KEY=VALUE flags into manifest vars,
// preserving flag order.
func parseVarFlags(flags []string) ([]manifest.EnvVar, error) {
	vars := make([]manifest.EnvVar, 0, len(flags))
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --var %q (expected KEY=VALUE)", flag)
		}
		vars = append(vars, manifest.EnvVar{Name: key, Value: value})
	}
	return vars, nil
}
