package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/seaway-labs/drydock/manifest"
	"github.com/seaway-labs/drydock/session"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return exitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	return exitErr.Code
}

func writeManifestFile(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func validText(t *testing.T) string {
	t.Helper()
	app, err := manifest.Build("blog", []manifest.PodSpec{
		{Name: "web", Image: "nginx:1.25", ServicePorts: []int{80}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return manifest.Render(app)
}

func TestValidateCmd(t *testing.T) {
	t.Run("valid manifest", func(t *testing.T) {
		path := writeManifestFile(t, validText(t))
		out, _, err := execute(t, NewValidateCmd(), path)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(out, "Valid!") {
			t.Fatalf("output = %q, want Valid!", out)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, NewValidateCmd(), filepath.Join(t.TempDir(), "missing.yaml"))
		if code := exitCode(t, err); code != exitFileNotFound {
			t.Fatalf("exit code = %d, want %d", code, exitFileNotFound)
		}
	})

	t.Run("invalid manifest", func(t *testing.T) {
		// Out-of-range port fails construction during parse.
		text := strings.Replace(validText(t), "- 80", "- 99999", 1)
		path := writeManifestFile(t, text)
		out, _, err := execute(t, NewValidateCmd(), path)
		if code := exitCode(t, err); code != exitValidation {
			t.Fatalf("exit code = %d, want %d", code, exitValidation)
		}
		if !strings.Contains(out, "99999") {
			t.Fatalf("output missing offending port: %q", out)
		}
	})

	t.Run("warnings pass unless strict", func(t *testing.T) {
		text := strings.Replace(validText(t), `image: "nginx:1.25"`, `image: "nginx"`, 1)
		path := writeManifestFile(t, text)

		out, _, err := execute(t, NewValidateCmd(), path)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(out, "1 warning") {
			t.Fatalf("output = %q, want warning summary", out)
		}

		_, _, err = execute(t, NewValidateCmd(), path, "--strict")
		if code := exitCode(t, err); code != exitValidation {
			t.Fatalf("strict exit code = %d, want %d", code, exitValidation)
		}
	})

	t.Run("json format", func(t *testing.T) {
		text := strings.Replace(validText(t), `image: "nginx:1.25"`, `image: "nginx"`, 1)
		path := writeManifestFile(t, text)

		out, _, err := execute(t, NewValidateCmd(), path, "--format", "json")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		var diags []manifest.Diagnostic
		if err := json.Unmarshal([]byte(out), &diags); err != nil {
			t.Fatalf("output is not JSON diagnostics: %v\n%s", err, out)
		}
		if len(diags) != 1 || diags[0].Code != "UNTAGGED_IMAGE" {
			t.Fatalf("diagnostics = %v, want one UNTAGGED_IMAGE", diags)
		}
	})
}

func TestRenderCmd(t *testing.T) {
	// Legacy sibling-pods layout normalizes to the canonical nested form.
	legacy := "application:\n" +
		"  name: \"blog\"\n" +
		"pods:\n" +
		"  - name: \"web\"\n" +
		"    image: \"nginx:1.25\"\n"
	path := writeManifestFile(t, legacy)

	out, _, err := execute(t, NewRenderCmd(), path)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	app, err := manifest.Parse([]byte(out))
	if err != nil {
		t.Fatalf("rendered output does not parse: %v", err)
	}
	want := manifest.Render(app)
	if out != want {
		t.Fatalf("output not canonical:\ngot:\n%s\nwant:\n%s", out, want)
	}
	if !strings.Contains(out, "  pods:") {
		t.Fatalf("output not nested layout:\n%s", out)
	}
}

func TestScaffoldCmd(t *testing.T) {
	t.Run("writes project files", func(t *testing.T) {
		dir := t.TempDir()
		out, _, err := execute(t, NewScaffoldCmd(), dir,
			"--app", "blog", "--framework", "node", "--var", "MODE=prod")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(out, "Dockerfile") || !strings.Contains(out, "drydock.yaml") {
			t.Fatalf("output = %q, want written file list", out)
		}
		if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
			t.Fatalf("package.json not written: %v", err)
		}
	})

	t.Run("rejects unknown framework", func(t *testing.T) {
		_, _, err := execute(t, NewScaffoldCmd(), t.TempDir(),
			"--app", "blog", "--framework", "fortran")
		if code := exitCode(t, err); code != exitInputParse {
			t.Fatalf("exit code = %d, want %d", code, exitInputParse)
		}
	})

	t.Run("rejects malformed var", func(t *testing.T) {
		_, _, err := execute(t, NewScaffoldCmd(), t.TempDir(),
			"--app", "blog", "--var", "MODE")
		if code := exitCode(t, err); code != exitInputParse {
			t.Fatalf("exit code = %d, want %d", code, exitInputParse)
		}
	})
}

func TestDeployCmd(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/deployments" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Session-Token"); got != "cli-token" {
			t.Errorf("token header = %q", got)
		}
		payload, _ := json.Marshal(map[string]any{
			"sessionToken":    "issued",
			"applicationName": "blog",
			"status":          "running",
			"url":             "https://blog.example.test",
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    json.RawMessage(payload),
		})
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.json")
	path := writeManifestFile(t, validText(t))

	out, _, err := execute(t, NewDeployCmd(), path,
		"--base-url", server.URL,
		"--token", "cli-token",
		"--sessions", sessionsPath,
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "Deployed blog (running)") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "https://blog.example.test") {
		t.Fatalf("output missing URL: %q", out)
	}

	store := session.NewFileStore(sessionsPath)
	stored, ok, err := store.Get(context.Background(), "blog")
	if err != nil || !ok {
		t.Fatalf("session not recorded: ok=%v err=%v", ok, err)
	}
	if stored.Token != "issued" {
		t.Fatalf("stored token = %q, want issued", stored.Token)
	}
}

func TestDeployCmdBlocksInvalidManifest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("platform must not be called for an invalid manifest")
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	text := strings.Replace(validText(t), "- 80", "- 99999", 1)
	path := writeManifestFile(t, text)

	_, errOut, err := execute(t, NewDeployCmd(), path, "--base-url", server.URL)
	if code := exitCode(t, err); code != exitValidation {
		t.Fatalf("exit code = %d, want %d", code, exitValidation)
	}
	if !strings.Contains(errOut, "99999") {
		t.Fatalf("stderr = %q, want offending port", errOut)
	}
}

func TestDeployCmdRequiresBaseURL(t *testing.T) {
	t.Setenv(envBaseURL, "")
	path := writeManifestFile(t, validText(t))

	_, _, err := execute(t, NewDeployCmd(), path)
	if code := exitCode(t, err); code != exitInputParse {
		t.Fatalf("exit code = %d, want %d", code, exitInputParse)
	}
}

func TestReservationsCmds(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/reservations":
			payload, _ := json.Marshal(map[string]any{
				"reservations": []map[string]any{
					{"applicationName": "blog", "createdAt": "2026-08-01T10:00:00Z", "expiresAt": "2026-08-02T10:00:00Z"},
				},
			})
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": json.RawMessage(payload)})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/reservations":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/reservations/blog":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	conn := []string{"--base-url", server.URL, "--token", "cli-token"}

	out, _, err := execute(t, NewReservationsCmd(), append([]string{"list"}, conn...)...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "blog") || !strings.Contains(out, "APPLICATION") {
		t.Fatalf("list output = %q", out)
	}

	out, _, err = execute(t, NewReservationsCmd(), append([]string{"add", "blog"}, conn...)...)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Reserved blog") {
		t.Fatalf("add output = %q", out)
	}

	out, _, err = execute(t, NewReservationsCmd(), append([]string{"remove", "blog"}, conn...)...)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "Removed reservation for blog") {
		t.Fatalf("remove output = %q", out)
	}
}

func TestReservationsRequireToken(t *testing.T) {
	t.Setenv(envToken, "")
	_, _, err := execute(t, NewReservationsCmd(), "list", "--base-url", "http://localhost:1")
	if code := exitCode(t, err); code != exitInputParse {
		t.Fatalf("exit code = %d, want %d", code, exitInputParse)
	}
}
