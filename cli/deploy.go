package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/session"
)

// NewDeployCmd creates the "deploy" subcommand.
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <file>",
		Short: "Deploy a manifest file to the platform",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeploy,
	}

	addConnectionFlags(cmd)
	cmd.Flags().Bool("skip-validate", false, "Skip the local validation pass")
	cmd.Flags().Bool("remote-validate", false, "Ask the platform to validate before deploying")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	remoteValidate, _ := cmd.Flags().GetBool("remote-validate")
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(filePath) // #nosec G304 -- path from user CLI flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", filePath)
		}
		return fmt.Errorf("reading file: %w", err)
	}

	// Local validation runs first by default: a manifest that fails
	// locally is guaranteed to fail remotely.
	skipValidate, _ := cmd.Flags().GetBool("skip-validate")
	if !skipValidate {
		diags := collectDiagnostics(data)
		if hasErrors(diags) {
			printDiagnosticsText(cmd.ErrOrStderr(), diags)
			return exitError(exitValidation, "validation failed")
		}
		for _, warn := range warnings(diags) {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING [%s]: %s\n", warn.Code, warn.Message)
		}
	}

	client, err := newPlatformClient(cmd)
	if err != nil {
		return err
	}
	text := string(data)

	if remoteValidate {
		verdict, err := client.ValidateRemote(cmd.Context(), text)
		if err != nil {
			return exitError(exitPlatform, "%v", err)
		}
		if !verdict.Valid {
			for _, msg := range verdict.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "ERROR (remote): %s\n", msg)
			}
			return exitError(exitValidation, "platform validation failed")
		}
	}

	result, err := client.Deploy(cmd.Context(), text)
	if err != nil {
		return exitError(exitPlatform, "%v", err)
	}

	store, err := openSessionFileStore(cmd)
	if err != nil {
		return err
	}
	if err := store.Upsert(cmd.Context(), session.Session{
		Token:       result.SessionToken,
		Application: result.ApplicationName,
		URL:         result.URL,
		Status:      string(result.Status),
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		// The deployment succeeded; losing the session record is worth a
		// warning but not a failed exit.
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: recording session: %v\n", err)
	}

	fmt.Fprintf(out, "Deployed %s (%s)\n", result.ApplicationName, result.Status)
	if result.URL != "" {
		fmt.Fprintf(out, "URL: %s\n", result.URL)
	}
	fmt.Fprintf(out, "Session token: %s\n", result.SessionToken)
	return nil
}
