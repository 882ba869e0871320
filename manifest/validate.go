package manifest

import (
	"fmt"
	"strings"
)

// Severity defines diagnostic severity produced by validation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a structured validation finding.
type Diagnostic struct {
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Result aggregates diagnostics from one validation pass.
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Valid reports whether no error-severity diagnostic was found. Warnings
// do not affect validity.
func (r Result) Valid() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the error-severity diagnostics.
func (r Result) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (r Result) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

func (r Result) filter(severity Severity) []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// Validate checks an application for platform-level acceptability. Unlike
// Build, which stops at the first violation, Validate accumulates every
// finding so callers get complete feedback in one pass. It is a pure
// function over the in-memory model; the platform's own validation endpoint
// remains authoritative.
func Validate(app *Application) Result {
	result := Result{Diagnostics: make([]Diagnostic, 0)}
	if app == nil {
		result.add("", "REQUIRED_FIELD", SeverityError, "application is missing")
		return result
	}

	if app.Name == "" {
		result.add("name", "REQUIRED_FIELD", SeverityError, "application name must not be empty")
	}
	if len(app.Pods) == 0 {
		result.add("pods", "REQUIRED_FIELD", SeverityError, "application requires at least one pod")
	}

	podNames := make(map[string]bool, len(app.Pods))
	portOwners := make(map[int]string)

	for i := range app.Pods {
		pod := &app.Pods[i]
		field := fmt.Sprintf("pods[%d]", i)

		if pod.Name == "" {
			result.add(field+".name", "REQUIRED_FIELD", SeverityError, "pod name must not be empty")
		} else if podNames[pod.Name] {
			result.add(field+".name", "DUPLICATE_POD_NAME", SeverityError,
				fmt.Sprintf("duplicate pod name %q", pod.Name))
		}
		podNames[pod.Name] = true

		validateImage(&result, field, pod.Image)
		validatePorts(&result, field, pod, portOwners)
		validateVars(&result, field, pod.Vars)
		validateSecrets(&result, field, pod.Secrets)
	}

	return result
}

func validateImage(result *Result, field, image string) {
	if image == "" {
		result.add(field+".image", "REQUIRED_FIELD", SeverityError, "pod image must not be empty")
		return
	}
	// Untagged references resolve to "latest", which makes deploys
	// non-reproducible. Digest-pinned references count as tagged.
	last := image
	if idx := strings.LastIndex(image, "/"); idx >= 0 {
		last = image[idx+1:]
	}
	if !strings.Contains(last, ":") && !strings.Contains(image, "@") {
		result.add(field+".image", "UNTAGGED_IMAGE", SeverityWarning,
			fmt.Sprintf("image %q has no explicit tag and defaults to latest", image))
	}
}

func validatePorts(result *Result, field string, pod *Pod, portOwners map[int]string) {
	seen := make(map[int]bool, len(pod.ServicePorts))
	for _, port := range pod.ServicePorts {
		if port < 1 || port > 65535 {
			result.add(field+".servicePorts", "PORT_OUT_OF_RANGE", SeverityError,
				fmt.Sprintf("service port %d is outside [1, 65535]", port))
			continue
		}
		if seen[port] {
			continue
		}
		seen[port] = true

		// The platform load-balances per pod, so a port claimed by two
		// sibling pods is flagged but not rejected.
		if owner, ok := portOwners[port]; ok && owner != pod.Name {
			result.add(field+".servicePorts", "PORT_SHARED_ACROSS_PODS", SeverityWarning,
				fmt.Sprintf("service port %d is also claimed by pod %q", port, owner))
			continue
		}
		portOwners[port] = pod.Name
	}
}

func validateVars(result *Result, field string, vars []EnvVar) {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if v.Name == "" {
			result.add(field+".vars", "REQUIRED_FIELD", SeverityError, "var name must not be empty")
			continue
		}
		if !validVarName(v.Name) {
			result.add(field+".vars", "INVALID_VAR_NAME", SeverityError,
				fmt.Sprintf("var name %q is not a valid environment variable name", v.Name))
			continue
		}
		if seen[v.Name] {
			result.add(field+".vars", "DUPLICATE_VAR", SeverityError,
				fmt.Sprintf("duplicate var name %q", v.Name))
			continue
		}
		seen[v.Name] = true
	}
}

func validateSecrets(result *Result, field string, secrets []Secret) {
	targets := make(map[string]string, len(secrets))
	for i, s := range secrets {
		secretField := fmt.Sprintf("%s.secrets[%d]", field, i)
		if s.Name == "" {
			result.add(secretField+".name", "REQUIRED_FIELD", SeverityError, "secret name must not be empty")
		}
		if s.MountPath == "" {
			result.add(secretField+".mountPath", "REQUIRED_FIELD", SeverityError, "secret mount path must not be empty")
		}
		if s.FileName == "" {
			result.add(secretField+".fileName", "REQUIRED_FIELD", SeverityError, "secret file name must not be empty")
		}
		if s.MountPath == "" || s.FileName == "" {
			continue
		}

		target := s.MountPath + "/" + s.FileName
		if owner, ok := targets[target]; ok {
			result.add(secretField, "DUPLICATE_MOUNT_TARGET", SeverityWarning,
				fmt.Sprintf("secret %q mounts to %s, already used by secret %q", s.Name, target, owner))
			continue
		}
		targets[target] = s.Name
	}
}

func (r *Result) add(field, code string, severity Severity, message string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Field:    field,
		Code:     code,
		Severity: severity,
		Message:  message,
	})
}
