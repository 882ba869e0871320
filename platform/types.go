// Package platform is the HTTP client for the remote deployment platform.
// It serializes parameters into the platform's fixed request shapes and
// surfaces failures verbatim; it never retries and never interprets session
// tokens. The client is an explicit value passed to callers — there is no
// package-level cached instance.
package platform

import (
	"encoding/json"
	"time"
)

// DeploymentStatus is the platform-reported state of a deployment.
type DeploymentStatus string

const (
	StatusDeploying DeploymentStatus = "deploying"
	StatusRunning   DeploymentStatus = "running"
	StatusError     DeploymentStatus = "error"
)

// DeployResult is returned by deploy, extend, and claim operations.
type DeployResult struct {
	SessionToken    string           `json:"sessionToken"`
	ApplicationName string           `json:"applicationName"`
	Status          DeploymentStatus `json:"status"`
	URL             string           `json:"url,omitempty"`
}

// Reservation is a platform-side hold on a deployment slot.
type Reservation struct {
	ApplicationName string    `json:"applicationName"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// RemoteValidation is the platform's authoritative validation verdict. The
// local manifest.Validate pass is a best-effort pre-check only.
type RemoteValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SchemaInfo is the platform's published manifest schema.
type SchemaInfo struct {
	Schema  json.RawMessage `json:"schema"`
	Version string          `json:"version"`
}

// apiEnvelope is the platform's uniform response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
