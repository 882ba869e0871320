package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seaway-labs/drydock/manifest"
	"github.com/seaway-labs/drydock/platform"
	"github.com/seaway-labs/drydock/session"
)

// platformTools carries the shared dependencies of every remote tool. The
// session store lets extend and claim fall back to a previously stored
// token when the caller does not pass one.
type platformTools struct {
	client   *platform.Client
	sessions session.Store
	logger   *slog.Logger
}

// RegisterPlatformTools adds the remote platform tools to a registry. The
// client is required; the session store may be nil, in which case tokens
// must always be passed explicitly.
func RegisterPlatformTools(r *Registry, client *platform.Client, sessions session.Store, logger *slog.Logger) error {
	if client == nil {
		return errors.New("tool: platform client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	shared := &platformTools{client: client, sessions: sessions, logger: logger}

	for _, t := range []Tool{
		deployApplicationTool{shared},
		extendDeploymentTool{shared},
		claimDeploymentTool{shared},
		addReservationTool{shared},
		removeReservationTool{shared},
		listReservationsTool{shared},
		validateRemoteTool{shared},
		fetchSchemaTool{shared},
	} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// resolveToken picks the session token for an operation: an explicit
// argument wins, then the stored session for the application.
func (p *platformTools) resolveToken(ctx context.Context, explicit, application string) string {
	if explicit != "" {
		return explicit
	}
	if p.sessions == nil || application == "" {
		return ""
	}
	stored, ok, err := p.sessions.Get(ctx, application)
	if err != nil {
		p.logger.Warn("session lookup failed", "application", application, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return stored.Token
}

// rememberSession persists a deploy/extend/claim result so later operations
// can reuse the token. Persistence failures are logged, not fatal: the
// platform call already succeeded.
func (p *platformTools) rememberSession(ctx context.Context, result platform.DeployResult, extended bool) {
	if p.sessions == nil || result.ApplicationName == "" {
		return
	}
	s := session.Session{
		Token:       result.SessionToken,
		Application: result.ApplicationName,
		URL:         result.URL,
		Status:      string(result.Status),
	}
	if prior, ok, err := p.sessions.Get(ctx, result.ApplicationName); err == nil && ok {
		s.CreatedAt = prior.CreatedAt
		if s.URL == "" {
			s.URL = prior.URL
		}
	}
	if extended {
		s.LastExtendedAt = time.Now().UTC()
	}
	if err := p.sessions.Upsert(ctx, s); err != nil {
		p.logger.Warn("session persist failed", "application", result.ApplicationName, "error", err)
	}
}

func deployResultOutputs(result platform.DeployResult) map[string]any {
	outputs := map[string]any{
		"sessionToken": result.SessionToken,
		"application":  result.ApplicationName,
		"status":       string(result.Status),
	}
	if result.URL != "" {
		outputs["url"] = result.URL
	}
	return outputs
}

// platformError converts a client failure into a tool error, keeping the
// operation name, status code, and retryability visible to the caller.
func platformError(err error) error {
	var perr *platform.Error
	if errors.As(err, &perr) {
		details := map[string]any{"op": perr.Op}
		if perr.StatusCode != 0 {
			details["statusCode"] = perr.StatusCode
		}
		return &Error{
			Code:      ErrCodePlatformFailure,
			Message:   perr.Message,
			Retryable: perr.Retryable,
			Details:   details,
			Cause:     err,
		}
	}
	return newError(ErrCodePlatformFailure, err.Error(), false, err)
}

type deployApplicationTool struct{ *platformTools }

func (deployApplicationTool) Name() string { return "deploy_application" }

func (deployApplicationTool) Spec() Spec {
	return Spec{
		Description: "Deploy manifest text to the platform and record the issued session.",
		Inputs: map[string]FieldSpec{
			"manifest": {Type: TypeString, Required: true, Description: "Manifest text to deploy."},
		},
	}
}

func (t deployApplicationTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	text, err := arguments(args).requiredString("manifest")
	if err != nil {
		return nil, err
	}

	// Local pre-check: reject manifests the platform is guaranteed to
	// refuse before spending a deployment slot on them.
	app, err := manifest.Parse([]byte(text))
	if err != nil {
		return nil, newError(ErrCodeManifestInvalid, err.Error(), false, err)
	}
	if result := manifest.Validate(app); !result.Valid() {
		first := result.Errors()[0]
		return nil, &Error{
			Code:    ErrCodeManifestInvalid,
			Message: first.Field + ": " + first.Message,
			Details: map[string]any{"errors": diagnosticMessages(result.Errors())},
		}
	}

	result, err := t.client.Deploy(ctx, text)
	if err != nil {
		return nil, platformError(err)
	}
	t.rememberSession(ctx, result, false)
	return deployResultOutputs(result), nil
}

type extendDeploymentTool struct{ *platformTools }

func (extendDeploymentTool) Name() string { return "extend_deployment" }

func (extendDeploymentTool) Spec() Spec {
	return Spec{
		Description: "Renew an existing deployment before its session expires.",
		Inputs: map[string]FieldSpec{
			"application":  {Type: TypeString, Required: true, Description: "Application name of the deployment."},
			"sessionToken": {Type: TypeString, Description: "Session token; defaults to the stored session for the application."},
		},
	}
}

func (t extendDeploymentTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	in := arguments(args)
	application, err := in.requiredString("application")
	if err != nil {
		return nil, err
	}
	explicit, err := in.optionalString("sessionToken")
	if err != nil {
		return nil, err
	}
	token := t.resolveToken(ctx, explicit, application)
	if token == "" {
		return nil, argumentError("sessionToken", "required: no stored session for application %q", application)
	}

	result, err := t.client.Extend(ctx, token, application)
	if err != nil {
		return nil, platformError(err)
	}
	t.rememberSession(ctx, result, true)
	return deployResultOutputs(result), nil
}

type claimDeploymentTool struct{ *platformTools }

func (claimDeploymentTool) Name() string { return "claim_deployment" }

func (claimDeploymentTool) Spec() Spec {
	return Spec{
		Description: "Take ownership of a deployment created under another session.",
		Inputs: map[string]FieldSpec{
			"application":  {Type: TypeString, Required: true, Description: "Application name of the deployment."},
			"sessionToken": {Type: TypeString, Required: true, Description: "Session token authorizing the claim."},
		},
	}
}

func (t claimDeploymentTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	in := arguments(args)
	application, err := in.requiredString("application")
	if err != nil {
		return nil, err
	}
	token, err := in.requiredString("sessionToken")
	if err != nil {
		return nil, err
	}

	result, err := t.client.Claim(ctx, token, application)
	if err != nil {
		return nil, platformError(err)
	}
	t.rememberSession(ctx, result, false)
	return deployResultOutputs(result), nil
}

type addReservationTool struct{ *platformTools }

func (addReservationTool) Name() string { return "add_reservation" }

func (addReservationTool) Spec() Spec {
	return Spec{
		Description: "Place a hold on a deployment slot for an application name.",
		Inputs: map[string]FieldSpec{
			"application":  {Type: TypeString, Required: true, Description: "Application name to reserve."},
			"sessionToken": {Type: TypeString, Description: "Session token; defaults to the stored session for the application."},
		},
	}
}

func (t addReservationTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	in := arguments(args)
	application, err := in.requiredString("application")
	if err != nil {
		return nil, err
	}
	explicit, err := in.optionalString("sessionToken")
	if err != nil {
		return nil, err
	}
	token := t.resolveToken(ctx, explicit, application)

	if err := t.client.AddReservation(ctx, token, application); err != nil {
		return nil, platformError(err)
	}
	return map[string]any{"reserved": true, "application": application}, nil
}

type removeReservationTool struct{ *platformTools }

func (removeReservationTool) Name() string { return "remove_reservation" }

func (removeReservationTool) Spec() Spec {
	return Spec{
		Description: "Release a hold on a deployment slot.",
		Inputs: map[string]FieldSpec{
			"application":  {Type: TypeString, Required: true, Description: "Application name to release."},
			"sessionToken": {Type: TypeString, Description: "Session token; defaults to the stored session for the application."},
		},
	}
}

func (t removeReservationTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	in := arguments(args)
	application, err := in.requiredString("application")
	if err != nil {
		return nil, err
	}
	explicit, err := in.optionalString("sessionToken")
	if err != nil {
		return nil, err
	}
	token := t.resolveToken(ctx, explicit, application)

	if err := t.client.RemoveReservation(ctx, token, application); err != nil {
		return nil, platformError(err)
	}
	return map[string]any{"removed": true, "application": application}, nil
}

type listReservationsTool struct{ *platformTools }

func (listReservationsTool) Name() string { return "list_reservations" }

func (listReservationsTool) Spec() Spec {
	return Spec{
		Description: "List the session's reservations in platform order.",
		Inputs: map[string]FieldSpec{
			"sessionToken": {Type: TypeString, Description: "Session token scoping the listing."},
		},
	}
}

func (t listReservationsTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	token, err := arguments(args).optionalString("sessionToken")
	if err != nil {
		return nil, err
	}

	reservations, err := t.client.ListReservations(ctx, token)
	if err != nil {
		return nil, platformError(err)
	}

	items := make([]map[string]any, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, map[string]any{
			"application": r.ApplicationName,
			"createdAt":   r.CreatedAt.UTC().Format(time.RFC3339),
			"expiresAt":   r.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return map[string]any{"reservations": items}, nil
}

type validateRemoteTool struct{ *platformTools }

func (validateRemoteTool) Name() string { return "validate_remote" }

func (validateRemoteTool) Spec() Spec {
	return Spec{
		Description: "Submit manifest text for the platform's authoritative validation.",
		Inputs: map[string]FieldSpec{
			"manifest": {Type: TypeString, Required: true, Description: "Manifest text to validate."},
		},
	}
}

func (t validateRemoteTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	text, err := arguments(args).requiredString("manifest")
	if err != nil {
		return nil, err
	}

	verdict, err := t.client.ValidateRemote(ctx, text)
	if err != nil {
		return nil, platformError(err)
	}
	return map[string]any{
		"valid":    verdict.Valid,
		"errors":   stringSliceOrEmpty(verdict.Errors),
		"warnings": stringSliceOrEmpty(verdict.Warnings),
	}, nil
}

type fetchSchemaTool struct{ *platformTools }

func (fetchSchemaTool) Name() string { return "fetch_schema" }

func (fetchSchemaTool) Spec() Spec {
	return Spec{
		Description: "Fetch the platform's published manifest schema.",
		Inputs:      map[string]FieldSpec{},
	}
}

func (t fetchSchemaTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	info, err := t.client.Schema(ctx)
	if err != nil {
		return nil, platformError(err)
	}

	var schema any
	if len(info.Schema) > 0 {
		if err := json.Unmarshal(info.Schema, &schema); err != nil {
			return nil, newError(ErrCodePlatformFailure,
				fmt.Sprintf("decode schema payload: %v", err), false, err)
		}
	}
	return map[string]any{"schema": schema, "version": info.Version}, nil
}

func stringSliceOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
