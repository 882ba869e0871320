package manifest

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseError reports malformed manifest text: YAML syntax errors, missing
// required keys, or values of the wrong type. Line is 1-based and zero when
// no location is available.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("manifest parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("manifest parse error: %s", e.Message)
}

func parseErrorAt(node *yaml.Node, format string, args ...any) *ParseError {
	line := 0
	if node != nil {
		line = node.Line
	}
	return &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Parse reads manifest text and reconstructs the Application it describes.
// Both layouts are accepted: the canonical form with pods nested under the
// application key, and the legacy form with pods as a sibling top-level
// key. Structural problems surface as *ParseError; violations of the model
// invariants surface as *InvalidSpecError from Build.
//
// The parser walks yaml.v3 nodes rather than unmarshalling into maps so
// that var insertion order is preserved and errors carry line numbers.
func Parse(data []byte) (*Application, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &ParseError{Message: "empty manifest"}
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, parseErrorAt(doc, "top level must be a mapping")
	}

	appNode := mappingValue(doc, "application")
	if appNode == nil {
		return nil, parseErrorAt(doc, "missing required key %q", "application")
	}
	if appNode.Kind != yaml.MappingNode {
		return nil, parseErrorAt(appNode, "application must be a mapping")
	}

	name, err := requireString(appNode, "name")
	if err != nil {
		return nil, err
	}

	// Canonical layout nests pods under application; the legacy layout
	// places them as a sibling of the application key.
	podsNode := mappingValue(appNode, "pods")
	if podsNode == nil {
		podsNode = mappingValue(doc, "pods")
	}
	if podsNode == nil {
		return nil, parseErrorAt(appNode, "missing required key %q", "pods")
	}
	if podsNode.Kind != yaml.SequenceNode {
		return nil, parseErrorAt(podsNode, "pods must be a sequence")
	}

	specs := make([]PodSpec, 0, len(podsNode.Content))
	for _, podNode := range podsNode.Content {
		spec, err := parsePod(podNode)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return Build(name, specs)
}

func parsePod(node *yaml.Node) (PodSpec, error) {
	if node.Kind != yaml.MappingNode {
		return PodSpec{}, parseErrorAt(node, "pod entry must be a mapping")
	}

	name, err := requireString(node, "name")
	if err != nil {
		return PodSpec{}, err
	}
	image, err := requireString(node, "image")
	if err != nil {
		return PodSpec{}, err
	}

	spec := PodSpec{Name: name, Image: image}

	if portsNode := mappingValue(node, "servicePorts"); portsNode != nil {
		if portsNode.Kind != yaml.SequenceNode {
			return PodSpec{}, parseErrorAt(portsNode, "servicePorts must be a sequence")
		}
		for _, portNode := range portsNode.Content {
			port, err := intScalar(portNode, "servicePorts entry")
			if err != nil {
				return PodSpec{}, err
			}
			spec.ServicePorts = append(spec.ServicePorts, port)
		}
	}

	if varsNode := mappingValue(node, "vars"); varsNode != nil {
		if varsNode.Kind != yaml.MappingNode {
			return PodSpec{}, parseErrorAt(varsNode, "vars must be a mapping")
		}
		for i := 0; i+1 < len(varsNode.Content); i += 2 {
			key := varsNode.Content[i]
			value, err := stringScalar(varsNode.Content[i+1], "var value")
			if err != nil {
				return PodSpec{}, err
			}
			spec.Vars = append(spec.Vars, EnvVar{Name: key.Value, Value: value})
		}
	}

	if secretsNode := mappingValue(node, "secrets"); secretsNode != nil {
		if secretsNode.Kind != yaml.SequenceNode {
			return PodSpec{}, parseErrorAt(secretsNode, "secrets must be a sequence")
		}
		for _, secretNode := range secretsNode.Content {
			secret, err := parseSecret(secretNode)
			if err != nil {
				return PodSpec{}, err
			}
			spec.Secrets = append(spec.Secrets, secret)
		}
	}

	return spec, nil
}

func parseSecret(node *yaml.Node) (Secret, error) {
	if node.Kind != yaml.MappingNode {
		return Secret{}, parseErrorAt(node, "secret entry must be a mapping")
	}

	var secret Secret
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &secret.Name},
		{"data", &secret.Data},
		{"mountPath", &secret.MountPath},
		{"fileName", &secret.FileName},
	} {
		value, err := requireString(node, field.key)
		if err != nil {
			return Secret{}, err
		}
		*field.dst = value
	}
	return secret, nil
}

// mappingValue returns the value node for a key in a mapping, or nil when
// the key is absent.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func requireString(mapping *yaml.Node, key string) (string, error) {
	node := mappingValue(mapping, key)
	if node == nil {
		return "", parseErrorAt(mapping, "missing required key %q", key)
	}
	return stringScalar(node, key)
}

func stringScalar(node *yaml.Node, what string) (string, error) {
	if node.Kind != yaml.ScalarNode || (node.Tag != "!!str" && node.Tag != "!!null") {
		return "", parseErrorAt(node, "%s must be a string", what)
	}
	if node.Tag == "!!null" {
		return "", nil
	}
	return node.Value, nil
}

func intScalar(node *yaml.Node, what string) (int, error) {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!int" {
		return 0, parseErrorAt(node, "%s must be an integer", what)
	}
	value, err := strconv.Atoi(node.Value)
	if err != nil {
		return 0, parseErrorAt(node, "%s is not a valid integer: %v", what, err)
	}
	return value, nil
}
