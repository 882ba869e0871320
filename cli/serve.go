package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"github.com/seaway-labs/drydock/mcpserver"
	drydockotel "github.com/seaway-labs/drydock/otel"
	"github.com/seaway-labs/drydock/platform"
	"github.com/seaway-labs/drydock/session"
	"github.com/seaway-labs/drydock/tool"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, version)
		},
	}

	addConnectionFlags(cmd)
	cmd.Flags().String("sqlite-path", "", "Path to SQLite session database (env "+envSQLitePath+", default ~/.drydock/drydock.db)")
	cmd.Flags().String("keepalive", "*/5 * * * *", "UTC cron schedule for extending stored sessions")
	cmd.Flags().Bool("no-keepalive", false, "Disable the background session keepalive")

	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	logger := commandLogger(cmd)

	dsn, err := resolveServeSQLiteDSN(cmd)
	if err != nil {
		return err
	}
	sessions, err := session.NewSQLiteStore(dsn)
	if err != nil {
		return fmt.Errorf("opening sqlite session store: %w", err)
	}
	defer func() {
		_ = sessions.Close()
	}()

	registry := tool.NewRegistry()
	if err := tool.RegisterManifestTools(registry); err != nil {
		return fmt.Errorf("registering manifest tools: %w", err)
	}
	if err := tool.RegisterScaffoldTools(registry); err != nil {
		return fmt.Errorf("registering scaffold tools: %w", err)
	}

	observer, err := drydockotel.NewToolObserver(
		otelapi.GetMeterProvider().Meter("drydock/tool"),
		otelapi.GetTracerProvider().Tracer("drydock/tool"),
	)
	if err != nil {
		return fmt.Errorf("initializing tool observability: %w", err)
	}
	registry.SetObserver(observer)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Platform tools and keepalive need a configured base URL; without one
	// the server still offers the local manifest and scaffold tools.
	client, clientErr := newPlatformClient(cmd)
	if clientErr != nil {
		logger.Warn("platform tools disabled", "reason", clientErr)
	} else {
		if err := tool.RegisterPlatformTools(registry, client, sessions, logger); err != nil {
			return fmt.Errorf("registering platform tools: %w", err)
		}
		if err := startKeepalive(ctx, cmd, client, sessions, logger); err != nil {
			return err
		}
	}

	server, err := mcpserver.New(mcpserver.Config{
		Registry: registry,
		Version:  version,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func startKeepalive(ctx context.Context, cmd *cobra.Command, client *platform.Client, sessions session.Store, logger *slog.Logger) error {
	disabled, _ := cmd.Flags().GetBool("no-keepalive")
	if disabled {
		return nil
	}
	schedule, _ := cmd.Flags().GetString("keepalive")

	keepalive, err := platform.NewKeepalive(client, sessions, schedule, logger)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}
	go func() {
		_ = keepalive.Run(ctx)
	}()
	return nil
}

// resolveServeSQLiteDSN picks the session database path from the flag, the
// environment, or the default under the user's home directory.
func resolveServeSQLiteDSN(cmd *cobra.Command) (string, error) {
	sqlitePath, _ := cmd.Flags().GetString("sqlite-path")
	dsn := strings.TrimSpace(sqlitePath)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv(envSQLitePath))
	}
	if dsn == "" {
		defaultPath, err := session.DefaultSQLitePath()
		if err != nil {
			return "", fmt.Errorf("resolving default sqlite path: %w", err)
		}
		dsn = defaultPath
	}
	return dsn, nil
}
