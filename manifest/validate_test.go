package manifest

import "testing"

func diagnosticCodes(diags []Diagnostic) []string {
	codes := make([]string, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	return codes
}

func hasCode(diags []Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestValidateCleanApplication(t *testing.T) {
	app, err := Build("blog", []PodSpec{{
		Name:         "web",
		Image:        "nginx:1.25",
		ServicePorts: []int{80},
		Vars:         []EnvVar{{Name: "MODE", Value: "prod"}},
	}})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := Validate(app)
	if !result.Valid() {
		t.Errorf("Valid() = false, errors: %v", result.Errors())
	}
	if len(result.Errors()) != 0 || len(result.Warnings()) != 0 {
		t.Errorf("diagnostics = %v, want none", result.Diagnostics)
	}
}

func TestValidateAccumulatesAllFindings(t *testing.T) {
	// Two independent problems in one application: a secret with no mount
	// path and a duplicated var name. Both must be reported.
	app := &Application{
		Name: "blog",
		Pods: []Pod{{
			Name:  "web",
			Image: "nginx:1.25",
			Vars: []EnvVar{
				{Name: "MODE", Value: "a"},
				{Name: "MODE", Value: "b"},
			},
			Secrets: []Secret{{Name: "tls", Data: "x", FileName: "cert.pem"}},
		}},
	}

	result := Validate(app)
	if result.Valid() {
		t.Fatal("Valid() = true, want false")
	}
	errs := result.Errors()
	if len(errs) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2 (%v)", len(errs), diagnosticCodes(errs))
	}
	if !hasCode(errs, "DUPLICATE_VAR") {
		t.Errorf("missing DUPLICATE_VAR in %v", diagnosticCodes(errs))
	}
	if !hasCode(errs, "REQUIRED_FIELD") {
		t.Errorf("missing REQUIRED_FIELD in %v", diagnosticCodes(errs))
	}
}

func TestValidateStructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		app      *Application
		wantCode string
	}{
		{
			name:     "empty application name",
			app:      &Application{Pods: []Pod{{Name: "web", Image: "nginx:1.25"}}},
			wantCode: "REQUIRED_FIELD",
		},
		{
			name:     "no pods",
			app:      &Application{Name: "blog"},
			wantCode: "REQUIRED_FIELD",
		},
		{
			name: "duplicate pod names",
			app: &Application{Name: "blog", Pods: []Pod{
				{Name: "web", Image: "nginx:1.25"},
				{Name: "web", Image: "nginx:1.25"},
			}},
			wantCode: "DUPLICATE_POD_NAME",
		},
		{
			name: "port out of range",
			app: &Application{Name: "blog", Pods: []Pod{
				{Name: "web", Image: "nginx:1.25", ServicePorts: []int{70000}},
			}},
			wantCode: "PORT_OUT_OF_RANGE",
		},
		{
			name: "var name with yaml mapping separator",
			app: &Application{Name: "blog", Pods: []Pod{
				{Name: "web", Image: "nginx:1.25", Vars: []EnvVar{{Name: "A: B", Value: "x"}}},
			}},
			wantCode: "INVALID_VAR_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.app)
			if result.Valid() {
				t.Fatal("Valid() = true, want false")
			}
			if !hasCode(result.Errors(), tt.wantCode) {
				t.Errorf("missing %s in %v", tt.wantCode, diagnosticCodes(result.Errors()))
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	tests := []struct {
		name     string
		app      *Application
		wantCode string
	}{
		{
			name: "untagged image",
			app: &Application{Name: "blog", Pods: []Pod{
				{Name: "web", Image: "nginx"},
			}},
			wantCode: "UNTAGGED_IMAGE",
		},
		{
			name: "registry-qualified untagged image",
			app: &Application{Name: "blog", Pods: []Pod{
				{Name: "web", Image: "registry.example.com:5000/team/app"},
			}},
			wantCode: "UNTAGGED_IMAGE",
		},
		{
			name: "port shared across pods",
			app: &Application{Name: "blog", Pods: []Pod{
				{Name: "web", Image: "nginx:1.25", ServicePorts: []int{80}},
				{Name: "api", Image: "api:1.0", ServicePorts: []int{80}},
			}},
			wantCode: "PORT_SHARED_ACROSS_PODS",
		},
		{
			name: "duplicate secret mount target",
			app: &Application{Name: "blog", Pods: []Pod{{
				Name: "web", Image: "nginx:1.25",
				Secrets: []Secret{
					{Name: "a", Data: "x", MountPath: "/etc/tls", FileName: "cert.pem"},
					{Name: "b", Data: "y", MountPath: "/etc/tls", FileName: "cert.pem"},
				},
			}}},
			wantCode: "DUPLICATE_MOUNT_TARGET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.app)
			if !result.Valid() {
				t.Fatalf("Valid() = false, errors: %v", result.Errors())
			}
			if !hasCode(result.Warnings(), tt.wantCode) {
				t.Errorf("missing %s warning in %v", tt.wantCode, diagnosticCodes(result.Warnings()))
			}
		})
	}
}

func TestValidateDigestPinnedImageNotFlagged(t *testing.T) {
	app := &Application{Name: "blog", Pods: []Pod{
		{Name: "web", Image: "nginx@sha256:deadbeef"},
	}}
	result := Validate(app)
	if hasCode(result.Warnings(), "UNTAGGED_IMAGE") {
		t.Error("digest-pinned image flagged as untagged")
	}
}
