package clpl

import (
	"math/big"

	"github.com/goccy/go-json"
)

// A Transformer converts one entry into a Go value. record selects the shape
// of nested pairs: map[string]any when true, *Map otherwise.
type Transformer func(e *Entry, record bool) (any, error)

// Transform converts p into a *Map, or into a map[string]any if record is
// true, passing the entry stored under every key through fn. A nil fn means
// [DefaultTransformer].
//
// Errors returned by fn are reported as a [*MappingError] naming the key.
func Transform(p *Pairs, record bool, fn Transformer) (any, error) {
	if fn == nil {
		fn = DefaultTransformer
	}
	return transformPairs(p, record, fn)
}

func transformPairs(p *Pairs, record bool, fn Transformer) (any, error) {
	if record {
		out := make(map[string]any, p.Len())
		for key, e := range p.All() {
			v, err := fn(e, record)
			if err != nil {
				return nil, at(err, keySegment(key))
			}
			out[key] = v
		}
		return out, nil
	}

	out := &Map{}
	for key, e := range p.All() {
		v, err := fn(e, record)
		if err != nil {
			return nil, at(err, keySegment(key))
		}
		out.Set(key, v)
	}
	return out, nil
}

// DefaultTransformer drops annotations and maps none to nil, booleans to
// bool, numbers to float64, text to string, bigints to *big.Int, lists to
// []any and pairs to *Map or map[string]any.
func DefaultTransformer(e *Entry, record bool) (any, error) {
	if e == nil {
		return nil, mappingErrorf("missing entry")
	}
	switch v := e.Value.(type) {
	case None:
		return nil, nil
	case Boolean:
		return bool(v), nil
	case Number:
		return float64(v), nil
	case Text:
		return string(v), nil
	case BigInt:
		return new(big.Int).Set(v.integer()), nil
	case List:
		out := make([]any, len(v))
		for i, elem := range v {
			x, err := DefaultTransformer(elem, record)
			if err != nil {
				return nil, at(err, indexSegment(i))
			}
			out[i] = x
		}
		return out, nil
	case *Pairs:
		return transformPairs(v, record, DefaultTransformer)
	default:
		return nil, mappingErrorf("missing value")
	}
}

// TransformAnnotations converts an annotation set the same way
// [DefaultTransformer] converts pairs.
func TransformAnnotations(a *Annotations, record bool) (any, error) {
	if record {
		out := make(map[string]any, a.Len())
		for name, an := range a.All() {
			v, err := transformAnnotation(an, record)
			if err != nil {
				return nil, at(err, annotationSegment(name))
			}
			out[name] = v
		}
		return out, nil
	}

	out := &Map{}
	for name, an := range a.All() {
		v, err := transformAnnotation(an, record)
		if err != nil {
			return nil, at(err, annotationSegment(name))
		}
		out.Set(name, v)
	}
	return out, nil
}

func transformAnnotation(a *Annotation, record bool) (any, error) {
	if a == nil {
		return nil, mappingErrorf("missing annotation")
	}
	switch v := a.Value.(type) {
	case None:
		return nil, nil
	case Boolean:
		return bool(v), nil
	case Number:
		return float64(v), nil
	case Text:
		return string(v), nil
	case BigInt:
		return new(big.Int).Set(v.integer()), nil
	case AnnotationList:
		out := make([]any, len(v))
		for i, elem := range v {
			x, err := transformAnnotation(elem, record)
			if err != nil {
				return nil, at(err, indexSegment(i))
			}
			out[i] = x
		}
		return out, nil
	case *Annotations:
		return TransformAnnotations(v, record)
	default:
		return nil, mappingErrorf("missing value")
	}
}

// MarshalJSON writes m as a JSON object with its keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	out := []byte{'{'}
	for i, key := range m.keys {
		if i > 0 {
			out = append(out, ',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		out = append(out, k...)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}'), nil
}
