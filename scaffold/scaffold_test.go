package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seaway-labs/drydock/manifest"
)

func TestParseFramework(t *testing.T) {
	tests := []struct {
		in      string
		want    Framework
		wantErr bool
	}{
		{in: "go", want: FrameworkGo},
		{in: " Node ", want: FrameworkNode},
		{in: "PYTHON", want: FrameworkPython},
		{in: "static", want: FrameworkStatic},
		{in: "rails", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFramework(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseFramework(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateNodeProject(t *testing.T) {
	dir := t.TempDir()
	written, err := Generate(dir, Options{
		AppName:   "shop",
		Framework: FrameworkNode,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("len(written) = %d, want 3: %v", len(written), written)
	}

	dockerfile, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		t.Fatalf("reading Dockerfile: %v", err)
	}
	if !strings.Contains(string(dockerfile), "EXPOSE 8080") {
		t.Errorf("Dockerfile missing default port:\n%s", dockerfile)
	}

	pkg, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatalf("reading package.json: %v", err)
	}
	if !strings.Contains(string(pkg), `"name": "shop"`) {
		t.Errorf("package.json missing app name:\n%s", pkg)
	}
}

func TestGenerateManifestParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	_, err := Generate(dir, Options{
		AppName:   "blog",
		Framework: FrameworkGo,
		Vars:      []manifest.EnvVar{{Name: "MODE", Value: "prod"}},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		t.Fatalf("reading %s: %v", ManifestFileName, err)
	}

	app, err := manifest.Parse(data)
	if err != nil {
		t.Fatalf("generated manifest does not parse: %v", err)
	}
	if app.Name != "blog" {
		t.Errorf("Name = %q, want %q", app.Name, "blog")
	}
	if app.Pods[0].Image != "blog:0.1.0" {
		t.Errorf("Image = %q, want default versioned image", app.Pods[0].Image)
	}

	result := manifest.Validate(app)
	if !result.Valid() || len(result.Warnings()) != 0 {
		t.Errorf("generated manifest not clean: %v", result.Diagnostics)
	}
}

func TestGenerateStaticUsesPort80(t *testing.T) {
	dir := t.TempDir()
	if _, err := Generate(dir, Options{AppName: "site", Framework: FrameworkStatic}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	app, err := manifest.Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := app.Pods[0].ServicePorts; len(got) != 1 || got[0] != 80 {
		t.Errorf("ServicePorts = %v, want [80]", got)
	}
}

func TestGenerateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o600); err != nil {
		t.Fatalf("seeding Dockerfile: %v", err)
	}

	_, err := Generate(dir, Options{AppName: "blog", Framework: FrameworkGo})
	if err == nil {
		t.Fatal("Generate overwrote existing file without force")
	}

	// A refused run must leave other targets unwritten.
	if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); !os.IsNotExist(err) {
		t.Error("refused run wrote the manifest anyway")
	}

	// Force allows the overwrite.
	if _, err := Generate(dir, Options{AppName: "blog", Framework: FrameworkGo, Force: true}); err != nil {
		t.Fatalf("Generate with force returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		t.Fatalf("reading Dockerfile: %v", err)
	}
	if !strings.Contains(string(data), "golang:1.24-alpine") {
		t.Error("force run did not replace the Dockerfile")
	}
}

func TestGenerateRequiresAppName(t *testing.T) {
	if _, err := Generate(t.TempDir(), Options{Framework: FrameworkGo}); err == nil {
		t.Error("Generate without app name succeeded")
	}
}
