package clpl

import (
	"math"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// Text longer than this many chunks is wrapped onto the next line.
const chunkLimit = 75

var textEscapes = map[rune]string{
	'"':  `\"`,
	'\\': `\\`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\b': `\b`,
	'\f': `\f`,
	'\v': `\v`,
}

type stringifier struct {
	indent int
	level  int
	out    strings.Builder
}

// Stringify writes p as a CLPL document that [Parse] reads back into an
// equal document.
//
// indent is clamped to 0..6. With 0 the whole document is written on one
// line separated by single spaces; otherwise every construct gets its own
// line, indented by indent spaces per level, and long text is wrapped.
func Stringify(p *Pairs, indent int) ([]byte, error) {
	if p == nil {
		return nil, &StringifyError{Msg: "missing pairs"}
	}
	s := &stringifier{indent: max(0, min(6, indent))}
	first := true
	for key, e := range p.All() {
		if !first {
			s.newline()
		}
		first = false
		if err := s.pair(key, e); err != nil {
			return nil, err
		}
	}
	return []byte(s.out.String()), nil
}

func (s *stringifier) newline() {
	if s.indent == 0 {
		s.out.WriteByte(' ')
		return
	}
	s.out.WriteByte('\n')
	s.out.WriteString(strings.Repeat(" ", s.indent*s.level))
}

func (s *stringifier) pair(key string, e *Entry) error {
	k, err := quoteKey(key)
	if err != nil {
		return at(err, keySegment(key))
	}
	if err := s.entry(e, k+" = "); err != nil {
		return at(err, keySegment(key))
	}
	return nil
}

func (s *stringifier) entry(e *Entry, prefix string) error {
	if e == nil {
		return &StringifyError{Msg: "missing entry"}
	}
	for name, a := range e.Annotations.All() {
		if err := s.annotation(name, a); err != nil {
			return at(err, annotationSegment(name))
		}
		s.newline()
	}
	s.out.WriteString(prefix)
	return s.value(e.Value)
}

func (s *stringifier) annotation(name string, a *Annotation) error {
	if name == "" {
		return &StringifyError{Msg: "annotation name may not be empty"}
	}
	if strings.ContainsAny(name, "= \n\r") {
		return &StringifyError{Msg: "annotation name may not contain '=', space, or newline"}
	}
	if a == nil {
		return &StringifyError{Msg: "missing annotation"}
	}
	if _, ok := a.Value.(None); ok {
		s.out.WriteString("@" + name)
		return nil
	}
	s.out.WriteString("@" + name + "=")
	return s.annotationValue(a.Value)
}

func (s *stringifier) value(v Value) error {
	switch v := v.(type) {
	case None:
		s.out.WriteString("none")
	case Boolean:
		s.boolean(bool(v))
	case Number:
		return s.number(float64(v))
	case Text:
		s.text(string(v))
	case BigInt:
		s.out.WriteString(v.String() + "n")
	case List:
		if len(v) == 0 {
			s.out.WriteString("[]")
			return nil
		}
		s.open('[')
		for i, e := range v {
			s.newline()
			if err := s.entry(e, ""); err != nil {
				return at(err, indexSegment(i))
			}
		}
		s.close(']')
	case *Pairs:
		if v == nil {
			return &StringifyError{Msg: "missing pairs"}
		}
		if v.Len() == 0 {
			s.out.WriteString("()")
			return nil
		}
		s.open('(')
		for key, e := range v.All() {
			s.newline()
			if err := s.pair(key, e); err != nil {
				return err
			}
		}
		s.close(')')
	default:
		return &StringifyError{Msg: "missing value"}
	}
	return nil
}

func (s *stringifier) annotationValue(v AnnotationValue) error {
	switch v := v.(type) {
	case None:
		s.out.WriteString("none")
	case Boolean:
		s.boolean(bool(v))
	case Number:
		return s.number(float64(v))
	case Text:
		s.text(string(v))
	case BigInt:
		s.out.WriteString(v.String() + "n")
	case AnnotationList:
		if len(v) == 0 {
			s.out.WriteString("[]")
			return nil
		}
		s.open('[')
		for i, a := range v {
			s.newline()
			if a == nil {
				return at(&StringifyError{Msg: "missing annotation"}, indexSegment(i))
			}
			if err := s.annotationValue(a.Value); err != nil {
				return at(err, indexSegment(i))
			}
		}
		s.close(']')
	case *Annotations:
		if v == nil {
			return &StringifyError{Msg: "missing pairs"}
		}
		if v.Len() == 0 {
			s.out.WriteString("()")
			return nil
		}
		s.open('(')
		for key, a := range v.All() {
			s.newline()
			if err := s.annotationPair(key, a); err != nil {
				return at(err, keySegment(key))
			}
		}
		s.close(')')
	default:
		return &StringifyError{Msg: "missing value"}
	}
	return nil
}

func (s *stringifier) annotationPair(key string, a *Annotation) error {
	k, err := quoteKey(key)
	if err != nil {
		return err
	}
	if a == nil {
		return &StringifyError{Msg: "missing annotation"}
	}
	s.out.WriteString(k + " = ")
	return s.annotationValue(a.Value)
}

func (s *stringifier) open(c byte) {
	s.level++
	s.out.WriteByte(c)
}

func (s *stringifier) close(c byte) {
	s.level--
	s.newline()
	s.out.WriteByte(c)
}

func (s *stringifier) boolean(b bool) {
	if b {
		s.out.WriteString("yes")
	} else {
		s.out.WriteString("no")
	}
}

func (s *stringifier) number(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &StringifyError{Msg: "number must be finite"}
	}
	s.out.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// text writes t double quoted. Graphemes are counted in chunks (two for an
// escape, one otherwise) and once a line holds more than chunkLimit of them
// the literal is continued on the next line with a trailing backslash.
// A break is never placed in front of a space, since the continuation would
// swallow it.
func (s *stringifier) text(t string) {
	var clusters []string
	g := uniseg.NewGraphemes(t)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}

	s.level++
	s.out.WriteByte('"')
	chunks := 0
	for i, c := range clusters {
		plain := false
		for _, r := range c {
			if esc, ok := textEscapes[r]; ok {
				s.out.WriteString(esc)
				chunks += 2
			} else {
				s.out.WriteRune(r)
				plain = true
			}
		}
		if plain {
			chunks++
		}

		if chunks > chunkLimit && i < len(clusters)-1 {
			if s.indent == 0 {
				chunks = 0
				continue
			}
			if strings.HasPrefix(clusters[i+1], " ") {
				continue
			}
			s.out.WriteByte('\\')
			s.newline()
			chunks = 0
		}
	}
	s.out.WriteByte('"')
	s.level--
}

// quoteKey returns key as it must be written before an operator.
func quoteKey(key string) (string, error) {
	if strings.ContainsAny(key, "\r\n") {
		return "", &StringifyError{Msg: "key name must not contain any newline"}
	}
	if key != "" && key != ")" && key != "<" && !strings.ContainsAny(key[:1], "#@'") && !strings.Contains(key, " ") {
		return key, nil
	}
	// Inside single quotes a backslash keeps the character after it unless
	// that character is a quote, and a space after it is swallowed.
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(key); i++ {
		switch c := key[i]; c {
		case '\\':
			if i+1 == len(key) || key[i+1] == '\'' || key[i+1] == ' ' {
				return "", &StringifyError{Msg: "key name cannot be quoted"}
			}
			b.WriteByte(c)
			b.WriteByte(key[i+1])
			i++
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String(), nil
}
