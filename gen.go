package clpl

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"
)

type undefined struct{}

// Undefined may be returned in place of a value to leave a key or list item
// out of a generated document.
var Undefined any = undefined{}

// A Generator converts one Go value into an entry. Returning a nil entry
// leaves the value out. Nested values should be converted with s.Entry so
// that the generator applies at every depth.
type Generator func(v any, s *Stack) (*Entry, error)

// Stack carries a [Generator] through a conversion and remembers the maps,
// slices and pointers currently being converted.
type Stack struct {
	fn       Generator
	visiting map[visit]struct{}
}

// visit identifies a reference value the way encoding/json does: slices
// sharing a backing array but with different lengths are distinct.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// Gen builds a document from v, which must convert to pairs: a *Map, a map
// with string-like keys, a struct or a pointer to one of them. A nil fn
// means [DefaultGenerator].
//
// A value that contains itself is reported as [ErrCycle] inside a
// [*MappingError] naming where the repetition was found.
func Gen(v any, fn Generator) (*Pairs, error) {
	if fn == nil {
		fn = DefaultGenerator
	}
	s := &Stack{fn: fn, visiting: map[visit]struct{}{}}
	e, err := s.Entry(v)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, mappingErrorf("top-level value must be pairs, got nothing")
	}
	p, ok := e.Value.(*Pairs)
	if !ok || p == nil {
		return nil, mappingErrorf("top-level value must be pairs, got %s", kindOf(e.Value))
	}
	return p, nil
}

func kindOf(v Value) string {
	if v == nil {
		return "no value"
	}
	return v.Kind().String()
}

// Entry converts v with the stack's generator.
func (s *Stack) Entry(v any) (*Entry, error) {
	return s.fn(v, s)
}

func (s *Stack) enter(rv reflect.Value) error {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		k.len = rv.Len()
	}
	if _, ok := s.visiting[k]; ok {
		return &MappingError{Err: ErrCycle}
	}
	s.visiting[k] = struct{}{}
	return nil
}

func (s *Stack) leave(rv reflect.Value) {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		k.len = rv.Len()
	}
	delete(s.visiting, k)
}

// DefaultGenerator converts Go values the way encoding/json would, with
// these differences: nil is none, integers too large for a double become
// bigints, *big.Int becomes a bigint, maps are written with sorted keys and
// model values are used as they are.
func DefaultGenerator(v any, s *Stack) (*Entry, error) {
	switch v := v.(type) {
	case nil:
		return &Entry{Value: None{}}, nil
	case undefined:
		return nil, nil
	case *Entry:
		return v, nil
	case *Pairs:
		if v == nil {
			return &Entry{Value: None{}}, nil
		}
		return &Entry{Value: v}, nil
	case Value:
		return &Entry{Value: v}, nil
	case *Map:
		if v == nil {
			return &Entry{Value: None{}}, nil
		}
		return s.orderedMap(v)
	case *big.Int:
		if v == nil {
			return &Entry{Value: None{}}, nil
		}
		return &Entry{Value: BigInt{new(big.Int).Set(v)}}, nil
	case encoding.TextMarshaler:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return &Entry{Value: None{}}, nil
		}
		text, err := v.MarshalText()
		if err != nil {
			return nil, &MappingError{Err: err}
		}
		return &Entry{Value: Text(text)}, nil
	}
	return s.reflected(reflect.ValueOf(v))
}

func (s *Stack) orderedMap(m *Map) (*Entry, error) {
	rv := reflect.ValueOf(m)
	if err := s.enter(rv); err != nil {
		return nil, err
	}
	defer s.leave(rv)

	p := &Pairs{}
	for key, v := range m.All() {
		e, err := s.Entry(v)
		if err != nil {
			return nil, at(err, keySegment(key))
		}
		if e != nil {
			p.Set(key, e)
		}
	}
	return &Entry{Value: p}, nil
}

func (s *Stack) reflected(rv reflect.Value) (*Entry, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return &Entry{Value: None{}}, nil
	case reflect.Bool:
		return &Entry{Value: Boolean(rv.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Entry{Value: integer(big.NewInt(rv.Int()))}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &Entry{Value: integer(new(big.Int).SetUint64(rv.Uint()))}, nil
	case reflect.Float32, reflect.Float64:
		return &Entry{Value: Number(rv.Float())}, nil
	case reflect.String:
		return &Entry{Value: Text(rv.String())}, nil
	case reflect.Interface:
		if rv.IsNil() {
			return &Entry{Value: None{}}, nil
		}
		return s.Entry(rv.Elem().Interface())
	case reflect.Pointer:
		if rv.IsNil() {
			return &Entry{Value: None{}}, nil
		}
		if err := s.enter(rv); err != nil {
			return nil, err
		}
		defer s.leave(rv)
		return s.Entry(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return &Entry{Value: None{}}, nil
		}
		if err := s.enter(rv); err != nil {
			return nil, err
		}
		defer s.leave(rv)
		return s.goMap(rv)
	case reflect.Struct:
		return s.goStruct(rv)
	case reflect.Slice:
		if rv.IsNil() {
			return &Entry{Value: None{}}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return &Entry{Value: Text(base64.RawStdEncoding.EncodeToString(rv.Bytes()))}, nil
		}
		if err := s.enter(rv); err != nil {
			return nil, err
		}
		defer s.leave(rv)
		return s.goList(rv)
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return &Entry{Value: Text(base64.RawStdEncoding.EncodeToString(b))}, nil
		}
		return s.goList(rv)
	}
	return nil, mappingErrorf("unsupported type: %s", rv.Type())
}

// integer keeps n as a number while a double holds it exactly.
func integer(n *big.Int) Value {
	if n.IsInt64() {
		if i := n.Int64(); i >= -1<<53 && i <= 1<<53 {
			return Number(float64(i))
		}
	}
	return BigInt{n}
}

func (s *Stack) goList(rv reflect.Value) (*Entry, error) {
	l := List{}
	for i := range rv.Len() {
		e, err := s.Entry(rv.Index(i).Interface())
		if err != nil {
			return nil, at(err, indexSegment(i))
		}
		if e != nil {
			l = append(l, e)
		}
	}
	return &Entry{Value: l}, nil
}

func (s *Stack) goMap(rv reflect.Value) (*Entry, error) {
	keys := make([]string, 0, rv.Len())
	values := make(map[string]reflect.Value, rv.Len())
	for iter := rv.MapRange(); iter.Next(); {
		k, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		values[k] = iter.Value()
	}
	slices.Sort(keys)

	p := &Pairs{}
	for _, k := range keys {
		e, err := s.Entry(values[k].Interface())
		if err != nil {
			return nil, at(err, keySegment(k))
		}
		if e != nil {
			p.Set(k, e)
		}
	}
	return &Entry{Value: p}, nil
}

func mapKey(rv reflect.Value) (string, error) {
	if m, ok := rv.Interface().(encoding.TextMarshaler); ok {
		text, err := m.MarshalText()
		if err != nil {
			return "", &MappingError{Err: err}
		}
		return string(text), nil
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return fmt.Sprint(rv.Interface()), nil
	}
	return "", mappingErrorf("unsupported map key type: %s", rv.Type())
}

func (s *Stack) goStruct(rv reflect.Value) (*Entry, error) {
	p := &Pairs{}
	t := rv.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, options, skip := fieldTag(field)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if strings.Contains(options, "omitempty") && fv.IsZero() {
			continue
		}
		e, err := s.Entry(fv.Interface())
		if err != nil {
			return nil, at(err, keySegment(name))
		}
		if e != nil {
			p.Set(name, e)
		}
	}
	return &Entry{Value: p}, nil
}

// fieldTag reads the clpl tag of a struct field, falling back to the json
// tag and then to the field name.
func fieldTag(field reflect.StructField) (name, options string, skip bool) {
	tag, ok := field.Tag.Lookup("clpl")
	if !ok {
		tag, _ = field.Tag.Lookup("json")
	}
	if tag == "-" {
		return "", "", true
	}
	name, options, _ = strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, options, false
}
