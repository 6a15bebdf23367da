package main

import (
	"gopkg.in/yaml.v3"

	"github.com/jacentio/docket/store"
)

// documentNode renders a document as a YAML mapping in field order.
func documentNode(d *store.Document) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	var err error
	d.Range(func(k string, v any) bool {
		var val *yaml.Node
		if val, err = valueNode(v); err != nil {
			return false
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			val,
		)
		return true
	})
	return node, err
}

func valueNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *store.Document:
		return documentNode(t)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range t {
			n, err := valueNode(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}
