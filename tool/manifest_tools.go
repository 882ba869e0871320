package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/seaway-labs/drydock/manifest"
)

// RegisterManifestTools adds the local manifest tools to a registry.
func RegisterManifestTools(r *Registry) error {
	for _, t := range []Tool{generateManifestTool{}, validateManifestTool{}} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

type generateManifestTool struct{}

func (generateManifestTool) Name() string { return "generate_manifest" }

func (generateManifestTool) Spec() Spec {
	return Spec{
		Description: "Build a deployment manifest from an application name and pod definitions.",
		Inputs: map[string]FieldSpec{
			"application": {Type: TypeString, Required: true, Description: "Application name."},
			"pods": {
				Type:     TypeArray,
				Required: true,
				Description: "Pod definitions: name, image, and optional servicePorts, " +
					"vars (object), and secrets (array of name/data/mountPath/fileName).",
			},
		},
	}
}

func (generateManifestTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	in := arguments(args)

	appName, err := in.optionalString("application")
	if err != nil {
		return nil, err
	}
	podItems, err := in.optionalObjectSlice("pods")
	if err != nil {
		return nil, err
	}
	specs, err := decodePodSpecs(podItems)
	if err != nil {
		return nil, err
	}

	app, err := manifest.Build(appName, specs)
	if err != nil {
		return nil, newError(ErrCodeManifestInvalid, err.Error(), false, err)
	}

	result := manifest.Validate(app)
	return map[string]any{
		"manifest": manifest.Render(app),
		"warnings": diagnosticMessages(result.Warnings()),
	}, nil
}

type validateManifestTool struct{}

func (validateManifestTool) Name() string { return "validate_manifest" }

func (validateManifestTool) Spec() Spec {
	return Spec{
		Description: "Check manifest text locally without contacting the platform.",
		Inputs: map[string]FieldSpec{
			"manifest": {Type: TypeString, Required: true, Description: "Manifest text to validate."},
		},
	}
}

func (validateManifestTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	text, err := arguments(args).requiredString("manifest")
	if err != nil {
		return nil, err
	}

	// Malformed text and invariant violations are expected outcomes for a
	// validation tool, so they come back as findings, not errors.
	app, err := manifest.Parse([]byte(text))
	if err != nil {
		return map[string]any{
			"valid":    false,
			"errors":   []string{err.Error()},
			"warnings": []string{},
		}, nil
	}

	result := manifest.Validate(app)
	return map[string]any{
		"valid":    result.Valid(),
		"errors":   diagnosticMessages(result.Errors()),
		"warnings": diagnosticMessages(result.Warnings()),
	}, nil
}

// decodePodSpecs converts raw pod argument objects into model inputs,
// type-checking every field. Semantic rules (non-empty names, port ranges)
// stay with manifest.Build.
func decodePodSpecs(items []map[string]any) ([]manifest.PodSpec, error) {
	specs := make([]manifest.PodSpec, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("pods[%d]", i)
		pod := arguments(item)

		name, err := pod.optionalString("name")
		if err != nil {
			return nil, prefixArgumentError(err, prefix)
		}
		image, err := pod.optionalString("image")
		if err != nil {
			return nil, prefixArgumentError(err, prefix)
		}
		ports, err := pod.optionalIntSlice("servicePorts")
		if err != nil {
			return nil, prefixArgumentError(err, prefix)
		}

		// Var order from a JSON object is undefined, so keys are sorted to
		// keep rendering deterministic across invocations.
		varKeys, varValues, err := pod.optionalStringMap("vars")
		if err != nil {
			return nil, prefixArgumentError(err, prefix)
		}
		vars := make([]manifest.EnvVar, 0, len(varKeys))
		for _, key := range varKeys {
			vars = append(vars, manifest.EnvVar{Name: key, Value: varValues[key]})
		}

		secretItems, err := pod.optionalObjectSlice("secrets")
		if err != nil {
			return nil, prefixArgumentError(err, prefix)
		}
		secrets := make([]manifest.Secret, 0, len(secretItems))
		for j, secretItem := range secretItems {
			secretPrefix := fmt.Sprintf("%s.secrets[%d]", prefix, j)
			secret := arguments(secretItem)
			var decoded manifest.Secret
			for _, field := range []struct {
				key string
				dst *string
			}{
				{"name", &decoded.Name},
				{"data", &decoded.Data},
				{"mountPath", &decoded.MountPath},
				{"fileName", &decoded.FileName},
			} {
				value, err := secret.optionalString(field.key)
				if err != nil {
					return nil, prefixArgumentError(err, secretPrefix)
				}
				*field.dst = value
			}
			secrets = append(secrets, decoded)
		}

		specs = append(specs, manifest.PodSpec{
			Name:         name,
			Image:        image,
			ServicePorts: ports,
			Vars:         vars,
			Secrets:      secrets,
		})
	}
	return specs, nil
}

func prefixArgumentError(err error, prefix string) error {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return &ArgumentError{Field: prefix + "." + argErr.Field, Message: argErr.Message}
	}
	return err
}

func diagnosticMessages(diags []manifest.Diagnostic) []string {
	messages := make([]string, 0, len(diags))
	for _, d := range diags {
		if d.Field != "" {
			messages = append(messages, d.Field+": "+d.Message)
			continue
		}
		messages = append(messages, d.Message)
	}
	return messages
}
