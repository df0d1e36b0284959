package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/goap/internal/worldstate"
)

// Facts is a YAML mapping of fact names to scalar values. Decoding keeps
// document order, which becomes the iteration order of the State.
type Facts struct {
	worldstate.State
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Facts) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		f.State = worldstate.State{}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: facts must be a mapping", node.Line)
	}

	var state worldstate.State
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return fmt.Errorf("line %d: fact names must be non-empty strings", key.Line)
		}
		if state.Has(key.Value) {
			return fmt.Errorf("line %d: duplicate fact %q", key.Line, key.Value)
		}
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: fact %q must be a scalar", val.Line, key.Value)
		}
		var raw any
		if err := val.Decode(&raw); err != nil {
			return fmt.Errorf("line %d: fact %q: %w", val.Line, key.Value, err)
		}
		v, err := worldstate.Of(raw)
		if err != nil {
			return fmt.Errorf("line %d: fact %q: %w", val.Line, key.Value, err)
		}
		state = state.With(key.Value, v)
	}
	f.State = state
	return nil
}

// MarshalYAML implements yaml.Marshaler, preserving order.
func (f Facts) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for name, v := range f.All() {
		var val yaml.Node
		if err := val.Encode(v.Interface()); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&val)
	}
	return node, nil
}
