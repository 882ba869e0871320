// Package scaffold generates starter project files for deployment: a
// Dockerfile matched to the chosen framework, the framework's package
// manifest where one is expected, and a deployment manifest produced
// through the manifest package so there is exactly one source of truth for
// the textual format.
package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/seaway-labs/drydock/manifest"
)

// ManifestFileName is the deployment manifest written into scaffolded
// projects.
const ManifestFileName = "drydock.yaml"

// Options configures one scaffold run.
type Options struct {
	AppName   string
	Framework Framework
	// Image overrides the manifest image reference. Defaults to
	// "<app>:0.1.0" so the generated manifest validates without an
	// untagged-image warning.
	Image string
	// Ports overrides the manifest service ports. Defaults to the
	// framework's conventional port.
	Ports []int
	Vars  []manifest.EnvVar
	// Force overwrites existing files instead of refusing.
	Force bool
}

// ParseFramework converts a user-supplied string to a Framework.
func ParseFramework(s string) (Framework, error) {
	fw := Framework(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := frameworkFiles[fw]; !ok {
		return "", fmt.Errorf("unsupported framework %q (supported: go, node, python, static)", s)
	}
	return fw, nil
}

// Generate writes the scaffold files into dir and returns the paths
// written. Nothing is written when any target file already exists and
// Force is unset.
func Generate(dir string, opts Options) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("scaffold: target directory is required")
	}
	if strings.TrimSpace(opts.AppName) == "" {
		return nil, errors.New("scaffold: application name is required")
	}
	files, ok := frameworkFiles[opts.Framework]
	if !ok {
		return nil, fmt.Errorf("scaffold: unsupported framework %q", opts.Framework)
	}

	image := opts.Image
	if image == "" {
		image = opts.AppName + ":0.1.0"
	}
	ports := opts.Ports
	if len(ports) == 0 {
		ports = []int{defaultPort(opts.Framework)}
	}

	app, err := manifest.Build(opts.AppName, []manifest.PodSpec{{
		Name:         opts.AppName,
		Image:        image,
		ServicePorts: ports,
		Vars:         opts.Vars,
	}})
	if err != nil {
		return nil, fmt.Errorf("scaffold: %w", err)
	}

	rendered := make(map[string]string, len(files)+1)
	data := struct {
		AppName string
		Port    int
	}{AppName: opts.AppName, Port: ports[0]}

	for _, file := range files {
		tmpl, err := template.New(file.name).Parse(file.content)
		if err != nil {
			return nil, fmt.Errorf("scaffold: parse %s template: %w", file.name, err)
		}
		var sb strings.Builder
		if err := tmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("scaffold: render %s: %w", file.name, err)
		}
		rendered[file.name] = sb.String()
	}
	rendered[ManifestFileName] = manifest.Render(app)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("scaffold: create target dir: %w", err)
	}

	// Check for collisions before writing anything so a refused run
	// leaves the directory untouched.
	if !opts.Force {
		for name := range rendered {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("scaffold: %s already exists (use force to overwrite)", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("scaffold: stat %s: %w", path, err)
			}
		}
	}

	written := make([]string, 0, len(rendered))
	for name, content := range rendered {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return nil, fmt.Errorf("scaffold: write %s: %w", path, err)
		}
		written = append(written, path)
	}

	slices.Sort(written)
	return written, nil
}
