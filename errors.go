package clpl

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports a fatal condition found by [Parse], with the 1-based line
// and column of the offending word.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// SegmentKind distinguishes the steps of a [Path].
type SegmentKind int8

const (
	KeySegment = SegmentKind(iota)
	IndexSegment
	AnnotationSegment
)

// A Segment is one step from a container to one of its children.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

func (s Segment) String() string {
	switch s.Kind {
	case KeySegment:
		return fmt.Sprintf("key '%s'", s.Key)
	case IndexSegment:
		return fmt.Sprintf("index %d", s.Index)
	case AnnotationSegment:
		return fmt.Sprintf("annotation '%s'", s.Key)
	default:
		panic("Unknown SegmentKind")
	}
}

func keySegment(key string) Segment         { return Segment{Kind: KeySegment, Key: key} }
func indexSegment(i int) Segment            { return Segment{Kind: IndexSegment, Index: i} }
func annotationSegment(name string) Segment { return Segment{Kind: AnnotationSegment, Key: name} }

// Path locates a value from the root of a document, outermost segment first.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// StringifyError reports a document that cannot be written by [Stringify].
type StringifyError struct {
	Path Path
	Msg  string
}

func (e *StringifyError) Error() string {
	if len(e.Path) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s inside %s", e.Msg, e.Path)
}

// ErrCycle is reported (wrapped in a [MappingError]) when [Gen] finds a value
// that contains itself.
var ErrCycle = errors.New("circular reference")

// MappingError reports a failure converting between documents and Go values.
type MappingError struct {
	Path Path
	Err  error
}

func (e *MappingError) Error() string {
	if len(e.Path) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s at %s", e.Err, e.Path)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func mappingErrorf(format string, args ...any) error {
	return &MappingError{Err: fmt.Errorf(format, args...)}
}

// at prefixes the path carried by err with seg. Errors that carry no path are
// wrapped in a MappingError.
func at(err error, seg Segment) error {
	switch err := err.(type) {
	case *StringifyError:
		err.Path = append(Path{seg}, err.Path...)
		return err
	case *MappingError:
		err.Path = append(Path{seg}, err.Path...)
		return err
	default:
		return &MappingError{Path: Path{seg}, Err: err}
	}
}
