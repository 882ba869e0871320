package manifest

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	app, err := Build("blog", []PodSpec{
		{
			Name:         "web",
			Image:        "nginx:1.25",
			ServicePorts: []int{80, 443},
			Vars: []EnvVar{
				{Name: "MODE", Value: "prod"},
				{Name: "REGION", Value: "eu-west-1"},
			},
			Secrets: []Secret{{
				Name: "tls", Data: "LS0tLS1CRUdJTg==", MountPath: "/etc/tls", FileName: "cert.pem",
			}},
		},
		{
			Name:  "worker",
			Image: "registry.example.com/jobs/worker:2.0",
		},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	parsed, err := Parse([]byte(Render(app)))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !reflect.DeepEqual(app, parsed) {
		t.Errorf("round-trip mismatch:\n built: %#v\nparsed: %#v", app, parsed)
	}
}

func TestParseRoundTripVarNameAlphabet(t *testing.T) {
	// Var names cover the full allowed alphabet and the value holds a
	// YAML-significant sequence; keys render unquoted, values quoted.
	app, err := Build("blog", []PodSpec{{
		Name:  "web",
		Image: "nginx:1.25",
		Vars: []EnvVar{
			{Name: "_a2_Z", Value: "x: y"},
			{Name: "HTTP2_ENABLED", Value: "true"},
		},
	}})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	parsed, err := Parse([]byte(Render(app)))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !reflect.DeepEqual(app, parsed) {
		t.Errorf("round-trip mismatch:\n built: %#v\nparsed: %#v", app, parsed)
	}
}

func TestParseLegacySiblingPodsLayout(t *testing.T) {
	text := `
application:
  name: "blog"
pods:
  - name: "web"
    image: "nginx:1.25"
    servicePorts:
      - 80
`
	app, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if app.Name != "blog" {
		t.Errorf("Name = %q, want %q", app.Name, "blog")
	}
	if len(app.Pods) != 1 || app.Pods[0].Name != "web" {
		t.Fatalf("Pods = %#v, want one pod named web", app.Pods)
	}
}

func TestParsePreservesVarOrder(t *testing.T) {
	text := `
application:
  name: "blog"
  pods:
    - name: "web"
      image: "nginx:1.25"
      vars:
        ZULU: "1"
        ALPHA: "2"
        MIKE: "3"
`
	app, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []EnvVar{{Name: "ZULU", Value: "1"}, {Name: "ALPHA", Value: "2"}, {Name: "MIKE", Value: "3"}}
	if !reflect.DeepEqual(app.Pods[0].Vars, want) {
		t.Errorf("Vars = %v, want %v", app.Pods[0].Vars, want)
	}
}

func TestParseMalformedText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMsg string
	}{
		{
			name:    "not yaml",
			text:    "application: [unterminated",
			wantMsg: "",
		},
		{
			name:    "empty document",
			text:    "",
			wantMsg: "empty manifest",
		},
		{
			name:    "missing application key",
			text:    "other: 1\n",
			wantMsg: `missing required key "application"`,
		},
		{
			name: "missing pod name",
			text: `
application:
  name: "blog"
  pods:
    - image: "nginx:1.25"
`,
			wantMsg: `missing required key "name"`,
		},
		{
			name: "missing pods",
			text: `
application:
  name: "blog"
`,
			wantMsg: `missing required key "pods"`,
		},
		{
			name: "pods not a sequence",
			text: `
application:
  name: "blog"
  pods: 3
`,
			wantMsg: "pods must be a sequence",
		},
		{
			name: "port is not an integer",
			text: `
application:
  name: "blog"
  pods:
    - name: "web"
      image: "nginx:1.25"
      servicePorts:
        - "eighty"
`,
			wantMsg: "must be an integer",
		},
		{
			name: "pod name is not a string",
			text: `
application:
  name: "blog"
  pods:
    - name: 12
      image: "nginx:1.25"
`,
			wantMsg: "must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text))
			if err == nil {
				t.Fatal("Parse succeeded, want *ParseError")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseRejectsModelViolations(t *testing.T) {
	// Structurally sound text that violates a model invariant surfaces the
	// construction error, not a parse error.
	text := `
application:
  name: "blog"
  pods:
    - name: "web"
      image: "nginx:1.25"
    - name: "web"
      image: "nginx:1.25"
`
	_, err := Parse([]byte(text))
	if err == nil {
		t.Fatal("Parse succeeded, want *InvalidSpecError")
	}
	var specErr *InvalidSpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("error type = %T, want *InvalidSpecError", err)
	}
}
