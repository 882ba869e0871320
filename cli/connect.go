package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/platform"
	"github.com/seaway-labs/drydock/session"
)

// Environment fallbacks for the connection flags.
const (
	envBaseURL      = "DRYDOCK_BASE_URL"
	envToken        = "DRYDOCK_TOKEN"
	envSessionsPath = "DRYDOCK_SESSIONS_PATH"
	envSQLitePath   = "DRYDOCK_SQLITE_PATH"
)

// addConnectionFlags registers the flags shared by every command that
// talks to the platform.
func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", "", "Platform base URL (env "+envBaseURL+")")
	cmd.Flags().String("token", "", "Session token (env "+envToken+")")
	cmd.Flags().String("sessions", "", "Session store file (env "+envSessionsPath+", default ~/.drydock/sessions.json)")
}

// newPlatformClient builds a client from the command's connection flags,
// falling back to environment variables.
func newPlatformClient(cmd *cobra.Command) (*platform.Client, error) {
	baseURL, _ := cmd.Flags().GetString("base-url")
	if strings.TrimSpace(baseURL) == "" {
		baseURL = strings.TrimSpace(os.Getenv(envBaseURL))
	}
	if baseURL == "" {
		return nil, exitError(exitInputParse, "platform base URL is required (--base-url or %s)", envBaseURL)
	}

	token, _ := cmd.Flags().GetString("token")
	if strings.TrimSpace(token) == "" {
		token = strings.TrimSpace(os.Getenv(envToken))
	}

	client, err := platform.New(platform.Config{
		BaseURL:      baseURL,
		SessionToken: token,
		Logger:       commandLogger(cmd),
	})
	if err != nil {
		return nil, exitError(exitInputParse, "%v", err)
	}
	return client, nil
}

// openSessionFileStore resolves the session file path from the flag, the
// environment, or the default under the user's home directory.
func openSessionFileStore(cmd *cobra.Command) (*session.FileStore, error) {
	path, _ := cmd.Flags().GetString("sessions")
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(envSessionsPath))
	}
	if path == "" {
		defaultPath, err := session.DefaultFilePath()
		if err != nil {
			return nil, fmt.Errorf("resolving default session path: %w", err)
		}
		path = defaultPath
	}
	return session.NewFileStore(path), nil
}

// commandLogger builds a logger honoring the root --verbose and --quiet
// flags. Logs go to stderr so command output stays parseable.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	if quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
