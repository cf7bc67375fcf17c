package main

import (
	"fmt"
	"io"
	"math/big"
	"slices"

	"github.com/clpl-lang/clpl-go"
	"github.com/goccy/go-json"
	"github.com/scott-cotton/cli"
	"gopkg.in/yaml.v3"
)

func jsonMain(cfg *JSONConfig, cc *cli.Context, args []string) error {
	args, err := cfg.JSON.Parse(cc, args)
	if err != nil {
		cfg.JSON.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	inputs, err := readInputs(cc.In, args)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := toJSON(cc.Out, in, cfg.Record); err != nil {
			return err
		}
	}
	return nil
}

func transformInput(in input, record bool) (any, error) {
	doc, err := clpl.Parse(in.data)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", in.name, err)
	}
	v, err := clpl.Transform(doc, record, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.name, err)
	}
	return v, nil
}

func toJSON(w io.Writer, in input, record bool) error {
	v, err := transformInput(in, record)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

func yamlMain(cfg *YAMLConfig, cc *cli.Context, args []string) error {
	args, err := cfg.YAML.Parse(cc, args)
	if err != nil {
		cfg.YAML.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	inputs, err := readInputs(cc.In, args)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cc.Out)
	enc.SetIndent(2)
	for _, in := range inputs {
		if err := toYAML(enc, in, cfg.Record); err != nil {
			return err
		}
	}
	return enc.Close()
}

func toYAML(enc *yaml.Encoder, in input, record bool) error {
	v, err := transformInput(in, record)
	if err != nil {
		return err
	}
	node, err := yamlNode(v)
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	return enc.Encode(node)
}

// yamlNode builds a node for a transformed value so that key order survives
// encoding.
func yamlNode(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case *clpl.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for key, x := range v.All() {
			if err := appendPair(n, key, x); err != nil {
				return nil, err
			}
		}
		return n, nil
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if err := appendPair(n, key, v[key]); err != nil {
				return nil, err
			}
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, x := range v {
			child, err := yamlNode(x)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case *big.Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.String()}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func appendPair(n *yaml.Node, key string, v any) error {
	value, err := yamlNode(v)
	if err != nil {
		return err
	}
	n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	return nil
}
