package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/clpl-lang/clpl-go"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/scott-cotton/cli"
	"gopkg.in/yaml.v3"
)

var decoders = map[string]func([]byte) (any, error){
	"json": decodeJSON,
	"yaml": decodeYAML,
	"yml":  decodeYAML,
	"toml": decodeTOML,
}

func importMain(cfg *ImportConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Import.Parse(cc, args)
	if err != nil {
		cfg.Import.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	decode, ok := decoders[strings.ToLower(cfg.From)]
	if !ok {
		return fmt.Errorf("%w: unknown format %q, expected json, yaml or toml", cli.ErrUsage, cfg.From)
	}
	inputs, err := readInputs(cc.In, args)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := importInput(cc.Out, in, decode, cfg.Indent); err != nil {
			return err
		}
	}
	return nil
}

func importInput(w io.Writer, in input, decode func([]byte) (any, error), indent int) error {
	v, err := decode(in.data)
	if err != nil {
		return fmt.Errorf("could not decode %s: %w", in.name, err)
	}
	doc, err := clpl.Gen(v, importGenerator)
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	out, err := clpl.Stringify(doc, indent)
	if err != nil {
		return fmt.Errorf("%s: %w", in.name, err)
	}
	log.Debug().Str("file", in.name).Int("keys", doc.Len()).Msg("imported")
	if len(out) > 0 {
		out = append(out, '\n')
	}
	_, err = w.Write(out)
	return err
}

// importGenerator keeps decoded JSON numbers exact, writing integers beyond
// 2^53 as bigints.
func importGenerator(v any, s *clpl.Stack) (*clpl.Entry, error) {
	n, ok := v.(json.Number)
	if !ok {
		return clpl.DefaultGenerator(v, s)
	}
	if i, ok := new(big.Int).SetString(string(n), 10); ok {
		if i.CmpAbs(big.NewInt(1<<53)) <= 0 {
			return &clpl.Entry{Value: clpl.Number(i.Int64())}, nil
		}
		return &clpl.Entry{Value: clpl.BigInt{Int: i}}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, &clpl.MappingError{Err: err}
	}
	return &clpl.Entry{Value: clpl.Number(f)}, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := jsonValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after the top-level value")
	}
	return v, nil
}

// jsonValue reads one value from dec, keeping object keys in order.
func jsonValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		m := &clpl.Map{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("expected an object key, got %v", tok)
			}
			v, err := jsonValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		_, err := dec.Token()
		return m, err
	case '[':
		l := []any{}
		for dec.More() {
			v, err := jsonValue(dec)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		_, err := dec.Token()
		return l, err
	}
	return nil, fmt.Errorf("unexpected %v", delim)
}

func decodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return &clpl.Map{}, nil
	}
	y := &yamlDecoder{aliases: map[*yaml.Node]any{}, active: map[*yaml.Node]bool{}}
	return y.value(root.Content[0])
}

type yamlDecoder struct {
	aliases map[*yaml.Node]any
	active  map[*yaml.Node]bool
}

// value converts n to ordered Go values. Aliased nodes are converted once
// and shared.
func (y *yamlDecoder) value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return y.value(n.Content[0])
	case yaml.AliasNode:
		if v, ok := y.aliases[n.Alias]; ok {
			return v, nil
		}
		if y.active[n.Alias] {
			return nil, fmt.Errorf("line %d: alias %q refers to itself", n.Line, n.Value)
		}
		y.active[n.Alias] = true
		v, err := y.value(n.Alias)
		delete(y.active, n.Alias)
		if err != nil {
			return nil, err
		}
		y.aliases[n.Alias] = v
		return v, nil
	case yaml.MappingNode:
		m := &clpl.Map{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: unsupported map key", k.Line)
			}
			x, err := y.value(v)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, x)
		}
		return m, nil
	case yaml.SequenceNode:
		l := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			x, err := y.value(c)
			if err != nil {
				return nil, err
			}
			l = append(l, x)
		}
		return l, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", n.Line)
}

func decodeTOML(data []byte) (any, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}
	order := map[string]int{}
	for i, key := range md.Keys() {
		if _, ok := order[key.String()]; !ok {
			order[key.String()] = i
		}
	}
	return tomlValue(raw, nil, order), nil
}

// tomlValue orders tables by where their keys first appear in the document.
// Keys inside arrays of tables share the array's path.
func tomlValue(v any, path toml.Key, order map[string]int) any {
	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		position := func(key string) int {
			if i, ok := order[append(slices.Clip(path), key).String()]; ok {
				return i
			}
			return len(order)
		}
		slices.SortFunc(keys, func(a, b string) int {
			if pa, pb := position(a), position(b); pa != pb {
				return pa - pb
			}
			return strings.Compare(a, b)
		})
		m := &clpl.Map{}
		for _, key := range keys {
			m.Set(key, tomlValue(v[key], append(slices.Clip(path), key), order))
		}
		return m
	case []map[string]any:
		l := make([]any, len(v))
		for i, x := range v {
			l[i] = tomlValue(x, path, order)
		}
		return l
	case []any:
		l := make([]any, len(v))
		for i, x := range v {
			l[i] = tomlValue(x, path, order)
		}
		return l
	}
	return v
}
