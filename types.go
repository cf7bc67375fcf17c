package clpl

import (
	"iter"
	"math/big"
	"slices"
)

// Kind identifies which of the seven variants a [Value] or [AnnotationValue] is.
type Kind int8

const (
	NoneKind = Kind(iota)
	BooleanKind
	NumberKind
	TextKind
	ListKind
	PairsKind
	BigIntKind
)

func (k Kind) String() string {
	switch k {
	case NoneKind:
		return "none"
	case BooleanKind:
		return "boolean"
	case NumberKind:
		return "number"
	case TextKind:
		return "text"
	case ListKind:
		return "list"
	case PairsKind:
		return "pairs"
	case BigIntKind:
		return "bigint"
	default:
		panic("Unknown Kind")
	}
}

// A Value is the content of an [Entry]. It is one of [None], [Boolean],
// [Number], [Text], [List], [*Pairs] or [BigInt].
type Value interface {
	Kind() Kind
	value()
}

// An AnnotationValue is the content of an [Annotation]. It is one of [None],
// [Boolean], [Number], [Text], [AnnotationList], [*Annotations] or [BigInt].
type AnnotationValue interface {
	Kind() Kind
	annotationValue()
}

// None is the absence of a value, written `none`.
type None struct{}

// Boolean is written `yes` or `no`.
type Boolean bool

// Number is a double precision number, written in plain decimal notation.
type Number float64

// Text is a string, written single or double quoted.
type Text string

// BigInt is an arbitrary precision integer, written with a trailing `n`.
type BigInt struct {
	*big.Int
}

// NewBigInt returns a BigInt holding x.
func NewBigInt(x int64) BigInt {
	return BigInt{big.NewInt(x)}
}

func (b BigInt) integer() *big.Int {
	if b.Int == nil {
		return new(big.Int)
	}
	return b.Int
}

func (b BigInt) String() string {
	return b.integer().String()
}

// Equal reports whether b and c hold the same integer.
func (b BigInt) Equal(c BigInt) bool {
	return b.integer().Cmp(c.integer()) == 0
}

// List is an ordered sequence of entries.
type List []*Entry

// AnnotationList is an ordered sequence of annotation values.
type AnnotationList []*Annotation

// Entry is an annotated value, stored under a key in [Pairs] or by position in a [List].
type Entry struct {
	Annotations Annotations
	Value       Value
}

// Annotation is metadata attached to an [Entry]. Annotations cannot be annotated themselves.
type Annotation struct {
	Value AnnotationValue
}

// Pairs is an insertion ordered mapping from keys to entries.
// The zero value is an empty Pairs ready to use.
type Pairs struct {
	ordered[*Entry]
}

// Annotations is an insertion ordered mapping from names to annotations.
// It is both the annotation set of an [Entry] and the pairs variant of an [AnnotationValue].
type Annotations struct {
	ordered[*Annotation]
}

// Map is the insertion ordered mapping produced by [Transform] and accepted by [Gen].
type Map struct {
	ordered[any]
}

func (None) Kind() Kind           { return NoneKind }
func (Boolean) Kind() Kind        { return BooleanKind }
func (Number) Kind() Kind         { return NumberKind }
func (Text) Kind() Kind           { return TextKind }
func (BigInt) Kind() Kind         { return BigIntKind }
func (List) Kind() Kind           { return ListKind }
func (AnnotationList) Kind() Kind { return ListKind }
func (*Pairs) Kind() Kind         { return PairsKind }
func (*Annotations) Kind() Kind   { return PairsKind }

func (None) value()    {}
func (Boolean) value() {}
func (Number) value()  {}
func (Text) value()    {}
func (BigInt) value()  {}
func (List) value()    {}
func (*Pairs) value()  {}

func (None) annotationValue()           {}
func (Boolean) annotationValue()        {}
func (Number) annotationValue()         {}
func (Text) annotationValue()           {}
func (BigInt) annotationValue()         {}
func (AnnotationList) annotationValue() {}
func (*Annotations) annotationValue()   {}

type ordered[V any] struct {
	keys   []string
	values map[string]V
}

// Get returns the value stored under key.
func (o *ordered[V]) Get(key string) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *ordered[V]) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Set stores value under key. A new key is appended to the order,
// an existing key keeps its position.
func (o *ordered[V]) Set(key string, value V) {
	if o.values == nil {
		o.values = make(map[string]V)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key.
func (o *ordered[V]) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

// Len returns the number of keys.
func (o *ordered[V]) Len() int {
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *ordered[V]) Keys() []string {
	return slices.Clone(o.keys)
}

// All iterates over keys and values in insertion order.
func (o *ordered[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, key := range o.keys {
			if !yield(key, o.values[key]) {
				return
			}
		}
	}
}

// Equal reports whether a and b are structurally equal: same variants, same
// keys in the same order, same annotations and same scalars.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case List:
		b, ok := b.(List)
		return ok && slices.EqualFunc(a, b, (*Entry).Equal)
	case *Pairs:
		b, ok := b.(*Pairs)
		return ok && a.Equal(b)
	case BigInt:
		b, ok := b.(BigInt)
		return ok && a.Equal(b)
	case None, Boolean, Number, Text:
		return a == b
	}
	return false
}

func equalAnnotationValue(a, b AnnotationValue) bool {
	switch a := a.(type) {
	case AnnotationList:
		b, ok := b.(AnnotationList)
		return ok && slices.EqualFunc(a, b, (*Annotation).Equal)
	case *Annotations:
		b, ok := b.(*Annotations)
		return ok && a.Equal(b)
	case BigInt:
		b, ok := b.(BigInt)
		return ok && a.Equal(b)
	case None, Boolean, Number, Text:
		return a == b
	}
	return false
}

func equalOrdered[V any](a, b *ordered[V], eq func(V, V) bool) bool {
	if !slices.Equal(a.keys, b.keys) {
		return false
	}
	for _, key := range a.keys {
		if !eq(a.values[key], b.values[key]) {
			return false
		}
	}
	return true
}

// Equal reports whether p and q hold equal entries under the same keys in the same order.
func (p *Pairs) Equal(q *Pairs) bool {
	if p == nil || q == nil {
		return p == q
	}
	return equalOrdered(&p.ordered, &q.ordered, (*Entry).Equal)
}

// Equal reports whether a and b hold equal annotations under the same names in the same order.
func (a *Annotations) Equal(b *Annotations) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equalOrdered(&a.ordered, &b.ordered, (*Annotation).Equal)
}

// Equal reports whether e and f have equal annotations and values.
func (e *Entry) Equal(f *Entry) bool {
	if e == nil || f == nil {
		return e == f
	}
	return e.Annotations.Equal(&f.Annotations) && Equal(e.Value, f.Value)
}

// Equal reports whether a and b have equal values.
func (a *Annotation) Equal(b *Annotation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equalAnnotationValue(a.Value, b.Value)
}
