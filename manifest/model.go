// Package manifest defines the deployment manifest model: applications
// composed of pods, deterministic rendering to the platform's textual
// format, parsing of that format, and validation.
//
// The model is immutable after construction. Build is the only validating
// constructor; Parse re-runs the same invariants so no invalid Application
// escapes either entry point.
package manifest

import "fmt"

// Application is the root of a deployment manifest.
type Application struct {
	Name string
	Pods []Pod
}

// Pod is a single deployable unit within an application.
type Pod struct {
	Name         string
	Image        string
	ServicePorts []int
	Vars         []EnvVar
	Secrets      []Secret
}

// EnvVar is an ordered environment variable entry. A slice of EnvVar is
// used instead of a map so rendering stays byte-identical across calls.
type EnvVar struct {
	Name  string
	Value string
}

// Secret is a file-mounted secret attached to a pod. Data is treated as an
// opaque, already-encoded payload.
type Secret struct {
	Name      string
	Data      string
	MountPath string
	FileName  string
}

// PodSpec is the raw caller-supplied input for one pod.
type PodSpec struct {
	Name         string
	Image        string
	ServicePorts []int
	Vars         []EnvVar
	Secrets      []Secret
}

// InvalidSpecError reports the first structural invariant violated during
// construction. Construction is all-or-nothing: no partial Application is
// ever returned alongside this error.
type InvalidSpecError struct {
	Field   string
	Message string
}

func (e *InvalidSpecError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid application spec: %s", e.Message)
	}
	return fmt.Sprintf("invalid application spec: %s: %s", e.Field, e.Message)
}

func invalidSpec(field, format string, args ...any) *InvalidSpecError {
	return &InvalidSpecError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Build constructs an Application from raw input, failing fast with an
// *InvalidSpecError on the first violated invariant. Input slices are
// copied so later mutation of the caller's data cannot reach the model.
func Build(applicationName string, pods []PodSpec) (*Application, error) {
	if applicationName == "" {
		return nil, invalidSpec("name", "application name must not be empty")
	}
	if len(pods) == 0 {
		return nil, invalidSpec("pods", "application requires at least one pod")
	}

	app := &Application{
		Name: applicationName,
		Pods: make([]Pod, 0, len(pods)),
	}

	podNames := make(map[string]bool, len(pods))
	for i, spec := range pods {
		field := fmt.Sprintf("pods[%d]", i)

		if spec.Name == "" {
			return nil, invalidSpec(field+".name", "pod name must not be empty")
		}
		if podNames[spec.Name] {
			return nil, invalidSpec(field+".name", "duplicate pod name %q", spec.Name)
		}
		podNames[spec.Name] = true

		if spec.Image == "" {
			return nil, invalidSpec(field+".image", "pod image must not be empty")
		}

		ports, err := buildServicePorts(field, spec.ServicePorts)
		if err != nil {
			return nil, err
		}
		vars, err := buildVars(field, spec.Vars)
		if err != nil {
			return nil, err
		}
		secrets, err := buildSecrets(field, spec.Secrets)
		if err != nil {
			return nil, err
		}

		app.Pods = append(app.Pods, Pod{
			Name:         spec.Name,
			Image:        spec.Image,
			ServicePorts: ports,
			Vars:         vars,
			Secrets:      secrets,
		})
	}

	return app, nil
}

// buildServicePorts range-checks ports and collapses duplicates, keeping
// the first occurrence so the caller's ordering round-trips.
func buildServicePorts(field string, ports []int) ([]int, error) {
	if len(ports) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(ports))
	seen := make(map[int]bool, len(ports))
	for _, port := range ports {
		if port < 1 || port > 65535 {
			return nil, invalidSpec(field+".servicePorts", "service port %d is outside [1, 65535]", port)
		}
		if seen[port] {
			continue
		}
		seen[port] = true
		out = append(out, port)
	}
	return out, nil
}

func buildVars(field string, vars []EnvVar) ([]EnvVar, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	out := make([]EnvVar, 0, len(vars))
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if v.Name == "" {
			return nil, invalidSpec(field+".vars", "var name must not be empty")
		}
		if !validVarName(v.Name) {
			return nil, invalidSpec(field+".vars", "var name %q is not a valid environment variable name", v.Name)
		}
		if seen[v.Name] {
			return nil, invalidSpec(field+".vars", "duplicate var name %q", v.Name)
		}
		seen[v.Name] = true
		out = append(out, v)
	}
	return out, nil
}

// validVarName reports whether name is a POSIX-style environment variable
// name: a letter or underscore followed by letters, digits, or underscores.
// Names in this set are always plain YAML scalars, so var keys render
// unquoted and parse back unchanged.
func validVarName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return name != ""
}

func buildSecrets(field string, secrets []Secret) ([]Secret, error) {
	if len(secrets) == 0 {
		return nil, nil
	}
	out := make([]Secret, 0, len(secrets))
	for i, s := range secrets {
		secretField := fmt.Sprintf("%s.secrets[%d]", field, i)
		if s.Name == "" {
			return nil, invalidSpec(secretField+".name", "secret name must not be empty")
		}
		if s.MountPath == "" {
			return nil, invalidSpec(secretField+".mountPath", "secret mount path must not be empty")
		}
		if s.FileName == "" {
			return nil, invalidSpec(secretField+".fileName", "secret file name must not be empty")
		}
		out = append(out, s)
	}
	return out, nil
}
