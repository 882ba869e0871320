package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/manifest"
)

// NewValidateCmd creates the "validate" subcommand.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a manifest file without contacting the platform",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	format, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(filePath) // #nosec G304 -- path from user CLI flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", filePath)
		}
		return fmt.Errorf("reading file: %w", err)
	}

	diags := collectDiagnostics(data)
	printDiagnostics(out, diags, format)

	hasErrs := hasErrors(diags)
	hasWarns := len(warnings(diags)) > 0
	if hasErrs || (strict && hasWarns) {
		return exitError(exitValidation, "validation failed")
	}
	return nil
}

// collectDiagnostics parses manifest text and runs validation. Structural
// and construction failures become single error diagnostics so callers get
// one uniform report shape.
func collectDiagnostics(data []byte) []manifest.Diagnostic {
	app, err := manifest.Parse(data)
	if err != nil {
		var parseErr *manifest.ParseError
		if errors.As(err, &parseErr) {
			field := ""
			if parseErr.Line > 0 {
				field = fmt.Sprintf("line %d", parseErr.Line)
			}
			return []manifest.Diagnostic{{
				Field:    field,
				Code:     "PARSE_FAILED",
				Severity: manifest.SeverityError,
				Message:  parseErr.Message,
			}}
		}
		var specErr *manifest.InvalidSpecError
		if errors.As(err, &specErr) {
			return []manifest.Diagnostic{{
				Field:    specErr.Field,
				Code:     "INVALID_SPEC",
				Severity: manifest.SeverityError,
				Message:  specErr.Message,
			}}
		}
		return []manifest.Diagnostic{{
			Code:     "PARSE_FAILED",
			Severity: manifest.SeverityError,
			Message:  err.Error(),
		}}
	}
	return manifest.Validate(app).Diagnostics
}

func printDiagnostics(w io.Writer, diags []manifest.Diagnostic, format string) {
	if format == "json" {
		printDiagnosticsJSON(w, diags)
		return
	}
	printDiagnosticsText(w, diags)
}

// printDiagnosticsText writes diagnostics as formatted text lines followed
// by a summary.
func printDiagnosticsText(w io.Writer, diags []manifest.Diagnostic) {
	for _, d := range diags {
		sev := strings.ToUpper(string(d.Severity))
		if d.Field != "" {
			fmt.Fprintf(w, "%s [%s]: %s (at %s)\n", sev, d.Code, d.Message, d.Field)
		} else {
			fmt.Fprintf(w, "%s [%s]: %s\n", sev, d.Code, d.Message)
		}
	}

	errs := errorsOf(diags)
	warns := warnings(diags)

	switch {
	case len(errs) == 0 && len(warns) == 0:
		fmt.Fprintln(w, "Valid!")
	case len(errs) == 0 && len(warns) > 0:
		fmt.Fprintf(w, "\nValid! (%d %s)\n", len(warns), pluralize("warning", len(warns)))
	default:
		fmt.Fprintf(w, "\n%d %s, %d %s\n",
			len(errs), pluralize("error", len(errs)),
			len(warns), pluralize("warning", len(warns)))
	}
}

func printDiagnosticsJSON(w io.Writer, diags []manifest.Diagnostic) {
	// Output an empty array rather than null when there are no diagnostics.
	if diags == nil {
		diags = []manifest.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(diags)
}

func hasErrors(diags []manifest.Diagnostic) bool {
	return len(errorsOf(diags)) > 0
}

func errorsOf(diags []manifest.Diagnostic) []manifest.Diagnostic {
	return filterSeverity(diags, manifest.SeverityError)
}

func warnings(diags []manifest.Diagnostic) []manifest.Diagnostic {
	return filterSeverity(diags, manifest.SeverityWarning)
}

func filterSeverity(diags []manifest.Diagnostic, severity manifest.Severity) []manifest.Diagnostic {
	out := make([]manifest.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// pluralize returns the singular or plural form of a word based on count.
func pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}
