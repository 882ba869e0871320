package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewReservationsCmd creates the "reservations" subcommand group.
func NewReservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Manage deployment slot reservations",
	}

	cmd.AddCommand(newReservationsListCmd())
	cmd.AddCommand(newReservationsAddCmd())
	cmd.AddCommand(newReservationsRemoveCmd())

	return cmd
}

func newReservationsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the session's reservations",
		Args:  cobra.NoArgs,
		RunE:  runReservationsList,
	}
	addConnectionFlags(cmd)
	return cmd
}

func newReservationsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <application>",
		Short: "Place a hold on a deployment slot",
		Args:  cobra.ExactArgs(1),
		RunE:  runReservationsAdd,
	}
	addConnectionFlags(cmd)
	return cmd
}

func newReservationsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <application>",
		Short: "Release a hold on a deployment slot",
		Args:  cobra.ExactArgs(1),
		RunE:  runReservationsRemove,
	}
	addConnectionFlags(cmd)
	return cmd
}

func runReservationsList(cmd *cobra.Command, _ []string) error {
	client, err := newPlatformClient(cmd)
	if err != nil {
		return err
	}
	token, err := resolveCommandToken(cmd)
	if err != nil {
		return err
	}

	reservations, err := client.ListReservations(cmd.Context(), token)
	if err != nil {
		return exitError(exitPlatform, "%v", err)
	}
	if len(reservations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reservations")
		return nil
	}

	// Platform order is preserved.
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APPLICATION\tCREATED\tEXPIRES")
	for _, r := range reservations {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			r.ApplicationName,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.ExpiresAt.UTC().Format(time.RFC3339),
		)
	}
	return w.Flush()
}

func runReservationsAdd(cmd *cobra.Command, args []string) error {
	application := args[0]
	client, err := newPlatformClient(cmd)
	if err != nil {
		return err
	}
	token, err := resolveCommandToken(cmd)
	if err != nil {
		return err
	}

	if err := client.AddReservation(cmd.Context(), token, application); err != nil {
		return exitError(exitPlatform, "%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s\n", application)
	return nil
}

func runReservationsRemove(cmd *cobra.Command, args []string) error {
	application := args[0]
	client, err := newPlatformClient(cmd)
	if err != nil {
		return err
	}
	token, err := resolveCommandToken(cmd)
	if err != nil {
		return err
	}

	if err := client.RemoveReservation(cmd.Context(), token, application); err != nil {
		return exitError(exitPlatform, "%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed reservation for %s\n", application)
	return nil
}

// resolveCommandToken returns the session token from the --token flag or
// the environment. Reservation operations are token-scoped, so an empty
// token is an input error.
func resolveCommandToken(cmd *cobra.Command) (string, error) {
	token, _ := cmd.Flags().GetString("token")
	if strings.TrimSpace(token) == "" {
		token = strings.TrimSpace(os.Getenv(envToken))
	}
	if token == "" {
		return "", exitError(exitInputParse, "session token is required (--token or %s)", envToken)
	}
	return token, nil
}
