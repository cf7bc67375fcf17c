package clpl

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"unicode"
)

// Marshal converts a go value to a CLPL document indented by two spaces.
//
// It returns an error if the value could not be marshaled (for example if it
// contains a channel, a func, or itself).
func Marshal(v any) ([]byte, error) {
	return MarshalIndent(v, 2)
}

// MarshalIndent is like [Marshal] with the given indent width.
func MarshalIndent(v any, indent int) ([]byte, error) {
	p, err := Gen(v, nil)
	if err != nil {
		return nil, err
	}
	data, err := Stringify(p, indent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

var bigIntType = reflect.TypeFor[big.Int]()

// Unmarshaler is implemented by types that decode themselves from an entry.
// Unlike [encoding.TextUnmarshaler] it sees every kind of value, and the
// entry's annotations.
type Unmarshaler interface {
	UnmarshalCLPL(e *Entry) error
}

// Unmarshal updates the value v with the data from the CLPL document.
// v should be a non-nil pointer to a struct, map, interface or *big.Int.
// Unmarshal acts similarly to json.Unmarshal.
//
// For struct fields, CLPL will first look for the name in a `clpl:"name"` tag,
// then in a `json:"name"` tag, and finally use the snake_case version of the field
// name or the field name itself.
//
// When unmarshalling into an interface, values are converted with
// [DefaultTransformer] into map[string]any, []any, float64, string, bool,
// *big.Int or nil. none sets any target to its zero value.
//
// If the CLPL document is invalid, or doesn't match the type of `v`, then an
// error will be returned.
func Unmarshal(data []byte, v any) error {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("invalid target, must be a non-nil pointer")
	}
	p, err := Parse(data)
	if err != nil {
		return err
	}
	return unmarshalValue(&Entry{Value: p}, value.Elem())
}

// UnmarshalEntry is like [Unmarshal] for an entry that was already parsed.
// It lets an [Unmarshaler] fall back to the default decoding.
func UnmarshalEntry(e *Entry, v any) error {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("invalid target, must be a non-nil pointer")
	}
	if e == nil {
		return mappingErrorf("missing entry")
	}
	return unmarshalValue(e, value.Elem())
}

func unmarshalValue(e *Entry, v reflect.Value) error {
	if !v.CanSet() {
		panic(fmt.Errorf("cannot set value of type: %v", v.Type()))
	}

	if u, ok := v.Addr().Interface().(Unmarshaler); ok {
		return u.UnmarshalCLPL(e)
	}
	if _, ok := e.Value.(None); ok {
		v.SetZero()
		return nil
	}

	if v.Type() == bigIntType {
		return unmarshalBigInt(e.Value, v)
	}
	if tu, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
		t, ok := e.Value.(Text)
		if !ok {
			return mappingErrorf("expected text, got %s", kindOf(e.Value))
		}
		if err := tu.UnmarshalText([]byte(t)); err != nil {
			return &MappingError{Err: err}
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Struct:
		return unmarshalStruct(e.Value, v)
	case reflect.Map:
		return unmarshalMap(e.Value, v)
	case reflect.Interface:
		return unmarshalInterface(e, v)
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return unmarshalValue(e, v.Elem())
	case reflect.Array:
		return unmarshalArray(e.Value, v)
	case reflect.Slice:
		return unmarshalSlice(e.Value, v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Bool,
		reflect.String:
		return setBasicValue(e.Value, v)
	}

	return mappingErrorf("unsupported type: %v", v.Type())
}

func unmarshalBigInt(val Value, v reflect.Value) error {
	n := v.Addr().Interface().(*big.Int)
	switch val := val.(type) {
	case BigInt:
		n.Set(val.integer())
	case Number:
		f := float64(val)
		if f != math.Trunc(f) {
			return mappingErrorf("invalid %s: %v", v.Type(), f)
		}
		new(big.Float).SetFloat64(f).Int(n)
	case Text:
		if _, ok := n.SetString(string(val), 10); !ok {
			return mappingErrorf("invalid %s: %q", v.Type(), string(val))
		}
	default:
		return mappingErrorf("expected bigint, got %s", kindOf(val))
	}
	return nil
}

func unmarshalStruct(val Value, v reflect.Value) error {
	p, ok := val.(*Pairs)
	if !ok {
		return mappingErrorf("expected pairs, got %s", kindOf(val))
	}

	t := v.Type()
	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		name, _, skip := fieldTag(fieldType)
		if skip {
			continue
		}
		fieldMap[name] = v.Field(i)
		if name == fieldType.Name {
			fieldMap[toSnakeCase(name)] = v.Field(i)
		}
	}

	for key, e := range p.All() {
		field, ok := fieldMap[key]
		if !ok {
			return at(fmt.Errorf("unknown field"), keySegment(key))
		}
		if err := unmarshalValue(e, field); err != nil {
			return at(err, keySegment(key))
		}
	}
	return nil
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func unmarshalInterface(e *Entry, v reflect.Value) error {
	if v.NumMethod() != 0 {
		return mappingErrorf("cannot unmarshal %s into %v", kindOf(e.Value), v.Type())
	}
	x, err := DefaultTransformer(e, true)
	if err != nil {
		return err
	}
	if x == nil {
		v.SetZero()
		return nil
	}
	v.Set(reflect.ValueOf(x))
	return nil
}

func unmarshalMap(val Value, v reflect.Value) error {
	p, ok := val.(*Pairs)
	if !ok {
		return mappingErrorf("expected pairs, got %s", kindOf(val))
	}
	keyType := v.Type().Key()
	valueType := v.Type().Elem()

	if v.IsNil() {
		v.Set(reflect.MakeMap(v.Type()))
	}
	for k, e := range p.All() {
		key := reflect.New(keyType).Elem()
		if err := setMapKey(k, key); err != nil {
			return at(fmt.Errorf("invalid key: %w", err), keySegment(k))
		}
		value := reflect.New(valueType).Elem()
		if err := unmarshalValue(e, value); err != nil {
			return at(err, keySegment(k))
		}
		v.SetMapIndex(key, value)
	}
	return nil
}

func unmarshalSlice(val Value, v reflect.Value) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		t, ok := val.(Text)
		if !ok {
			return mappingErrorf("expected text, got %s", kindOf(val))
		}
		r := strings.NewReplacer(" ", "", "\t", "", "\n", "", "=", "")
		output, err := base64.RawStdEncoding.DecodeString(r.Replace(string(t)))
		if err != nil {
			return &MappingError{Err: err}
		}
		v.SetBytes(output)
		return nil
	}

	l, ok := val.(List)
	if !ok {
		return mappingErrorf("expected list, got %s", kindOf(val))
	}
	s := reflect.MakeSlice(v.Type(), 0, len(l))
	for i, e := range l {
		elem := reflect.New(v.Type().Elem()).Elem()
		if err := unmarshalValue(e, elem); err != nil {
			return at(err, indexSegment(i))
		}
		s = reflect.Append(s, elem)
	}
	v.Set(s)
	return nil
}

func unmarshalArray(val Value, v reflect.Value) error {
	l, ok := val.(List)
	if !ok {
		return mappingErrorf("expected list, got %s", kindOf(val))
	}
	if len(l) > v.Len() {
		return mappingErrorf("too many elements, limit %d", v.Len())
	}
	for i, e := range l {
		if err := unmarshalValue(e, v.Index(i)); err != nil {
			return at(err, indexSegment(i))
		}
	}
	return nil
}

func setBasicValue(val Value, v reflect.Value) error {
	switch v.Kind() {
	case reflect.String:
		t, ok := val.(Text)
		if !ok {
			return mappingErrorf("expected text, got %s", kindOf(val))
		}
		v.SetString(string(t))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := wholeNumber(val)
		if err != nil {
			return err
		}
		if !n.IsInt64() || v.OverflowInt(n.Int64()) {
			return mappingErrorf("invalid %s: %v", v.Type(), n)
		}
		v.SetInt(n.Int64())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := wholeNumber(val)
		if err != nil {
			return err
		}
		if !n.IsUint64() || v.OverflowUint(n.Uint64()) {
			return mappingErrorf("invalid %s: %v", v.Type(), n)
		}
		v.SetUint(n.Uint64())
	case reflect.Float32, reflect.Float64:
		var f float64
		switch val := val.(type) {
		case Number:
			f = float64(val)
		case BigInt:
			f, _ = new(big.Float).SetInt(val.integer()).Float64()
		default:
			return mappingErrorf("expected number, got %s", kindOf(val))
		}
		if v.OverflowFloat(f) {
			return mappingErrorf("invalid %s: %v", v.Type(), f)
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, ok := val.(Boolean)
		if !ok {
			return mappingErrorf("expected boolean, got %s", kindOf(val))
		}
		v.SetBool(bool(b))
	default:
		return mappingErrorf("unsupported type %s", v.Type())
	}
	return nil
}

// wholeNumber accepts bigints and numbers without a fractional part.
func wholeNumber(val Value) (*big.Int, error) {
	switch val := val.(type) {
	case BigInt:
		return val.integer(), nil
	case Number:
		f := float64(val)
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, mappingErrorf("expected integer, got %v", f)
		}
		n, _ := new(big.Float).SetFloat64(f).Int(nil)
		return n, nil
	}
	return nil, mappingErrorf("expected number, got %s", kindOf(val))
}

// setMapKey decodes a pairs key into a map key, reading decimal text for
// integer key types.
func setMapKey(k string, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := new(big.Int).SetString(k, 10)
		if !ok {
			return mappingErrorf("expected integer, got %q", k)
		}
		return setBasicValue(BigInt{n}, v)
	}
	return setBasicValue(Text(k), v)
}
