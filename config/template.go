package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateYAML returns the example config with the given scalar keys
// replaced. Keys use the dotted form of the Key constants. The result is
// validated before it is returned.
func TemplateYAML(overrides map[string]string) (string, error) {
	if len(overrides) == 0 {
		return ExampleYAML(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(ExampleYAML()), &doc); err != nil {
		return "", fmt.Errorf("parse example config: %w", err)
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node, err := lookupScalar(&doc, key)
		if err != nil {
			return "", err
		}
		node.Value = overrides[key]
		if node.Tag == "!!str" {
			node.Style = yaml.DoubleQuotedStyle
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return "", fmt.Errorf("encode config template: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("encode config template: %w", err)
	}

	if _, err := ValidateYAMLContent(buf.Bytes()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func lookupScalar(doc *yaml.Node, key string) (*yaml.Node, error) {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	for _, part := range strings.Split(key, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("config key %q is not a nested mapping", key)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == part {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
		node = next
	}

	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("config key %q is not a scalar value", key)
	}
	return node, nil
}
