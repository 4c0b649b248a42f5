package frame

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pantry/internal/codec"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// readYAML decodes a YAML list of mappings (one record each) or a mapping
// of equal-length lists (one column each). Key order follows the document.
func readYAML(r io.Reader) (*types.Table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, types.ErrEmptyFile
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		return yamlRecords(root)
	case yaml.MappingNode:
		return yamlColumns(root)
	default:
		return nil, fmt.Errorf("%w: top-level yaml node is not a list or mapping", types.ErrNotTabular)
	}
}

func yamlRecords(seq *yaml.Node) (*types.Table, error) {
	var columns []string
	seen := make(map[string]bool)
	records := make([]types.Record, 0, len(seq.Content))

	for i, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: item %d is not a mapping", types.ErrNotTabular, i)
		}
		rec := make(types.Record, len(item.Content)/2)
		for j := 0; j+1 < len(item.Content); j += 2 {
			name := columnName(item.Content[j].Value)
			var v any
			if err := item.Content[j+1].Decode(&v); err != nil {
				return nil, fmt.Errorf("yaml item %d key %q: %w", i, name, err)
			}
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
			rec[name] = codec.NormalizeValue(v)
		}
		records = append(records, rec)
	}
	return types.NewTable(columns, records)
}

func yamlColumns(m *yaml.Node) (*types.Table, error) {
	var columns []string
	data := make(map[string][]any)

	for j := 0; j+1 < len(m.Content); j += 2 {
		name := columnName(m.Content[j].Value)
		val := m.Content[j+1]
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: value of %q is not a list", types.ErrNotTabular, name)
		}
		var vals []any
		if err := val.Decode(&vals); err != nil {
			return nil, fmt.Errorf("yaml column %q: %w", name, err)
		}
		for i := range vals {
			vals[i] = codec.NormalizeValue(vals[i])
		}
		columns = append(columns, name)
		data[name] = vals
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: empty mapping", types.ErrNotTabular)
	}
	return types.NewTableFromColumns(columns, data)
}
