package tool

import (
	"context"

	"github.com/seaway-labs/drydock/manifest"
	"github.com/seaway-labs/drydock/scaffold"
)

// RegisterScaffoldTools adds the project generation tools to a registry.
func RegisterScaffoldTools(r *Registry) error {
	return r.Register(scaffoldProjectTool{})
}

type scaffoldProjectTool struct{}

func (scaffoldProjectTool) Name() string { return "scaffold_project" }

func (scaffoldProjectTool) Spec() Spec {
	return Spec{
		Description: "Generate starter project files (Dockerfile, framework manifest, deployment manifest) in a directory.",
		Inputs: map[string]FieldSpec{
			"application": {Type: TypeString, Required: true, Description: "Application name."},
			"framework":   {Type: TypeString, Required: true, Description: "Project framework: go, node, python, or static."},
			"directory":   {Type: TypeString, Required: true, Description: "Target directory for generated files."},
			"image":       {Type: TypeString, Description: "Image reference for the manifest; defaults to <application>:0.1.0."},
			"ports":       {Type: TypeArray, Description: "Service ports; defaults to the framework's conventional port."},
			"vars":        {Type: TypeObject, Description: "Environment variables for the manifest."},
			"force":       {Type: TypeBoolean, Description: "Overwrite existing files instead of refusing."},
		},
	}
}

func (scaffoldProjectTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	in := arguments(args)

	application, err := in.requiredString("application")
	if err != nil {
		return nil, err
	}
	frameworkName, err := in.requiredString("framework")
	if err != nil {
		return nil, err
	}
	directory, err := in.requiredString("directory")
	if err != nil {
		return nil, err
	}
	image, err := in.optionalString("image")
	if err != nil {
		return nil, err
	}
	ports, err := in.optionalIntSlice("ports")
	if err != nil {
		return nil, err
	}
	varKeys, varValues, err := in.optionalStringMap("vars")
	if err != nil {
		return nil, err
	}
	force, err := in.optionalBool("force")
	if err != nil {
		return nil, err
	}

	framework, err := scaffold.ParseFramework(frameworkName)
	if err != nil {
		return nil, argumentError("framework", "%v", err)
	}

	vars := make([]manifest.EnvVar, 0, len(varKeys))
	for _, key := range varKeys {
		vars = append(vars, manifest.EnvVar{Name: key, Value: varValues[key]})
	}

	written, err := scaffold.Generate(directory, scaffold.Options{
		AppName:   application,
		Framework: framework,
		Image:     image,
		Ports:     ports,
		Vars:      vars,
		Force:     force,
	})
	if err != nil {
		return nil, newError(ErrCodeScaffoldFailed, err.Error(), false, err)
	}

	return map[string]any{
		"application": application,
		"framework":   string(framework),
		"files":       written,
	}, nil
}
