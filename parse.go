package clpl

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type context int8

const (
	seeking = context(iota)
	awaitingValue
	inSingleQuote
	inDoubleQuote
)

type side int8

const (
	documentSide = side(iota)
	annotationSide
)

type opener int8

const (
	rootOpener = opener(iota)
	parenOpener
	modifyOpener
)

// A frame is one level of the context stack. The path of its side is cut
// back to restore when the frame is popped.
type frame struct {
	context context
	side    side
	restore int

	// seeking frames
	opener opener
	// awaitingValue frames
	list bool
	// quote frames
	key bool
}

// A step addresses one entry inside the container selected by the steps
// before it: by key in pairs, by index in a list.
type step struct {
	key   string
	index int
}

type parser struct {
	frames []frame
	roots  [2]*Pairs
	paths  [2][]step

	annotations    Annotations
	annotationName string

	key    string
	hasKey bool

	quote quote

	line   int
	column int
}

// Parse reads a CLPL document.
//
// Every fatal condition is reported as a [*ParseError] carrying the line and
// column of the offending word; no partial document is returned.
func Parse(data []byte) (*Pairs, error) {
	p := &parser{
		frames: []frame{{context: seeking, side: documentSide, opener: rootOpener}},
		roots:  [2]*Pairs{{}, nil},
	}
	for lno, content := range lines(string(data)) {
		if lno > 1 {
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
		}
		p.line = lno
		if err := p.parseLine(content); err != nil {
			return nil, err
		}
	}
	if err := p.endOfInput(); err != nil {
		return nil, err
	}
	return p.roots[documentSide], nil
}

func (p *parser) errorf(column int, format string, args ...any) error {
	return &ParseError{Line: p.line, Column: column, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) top() *frame {
	return &p.frames[len(p.frames)-1]
}

func (p *parser) inQuote() bool {
	c := p.top().context
	return c == inSingleQuote || c == inDoubleQuote
}

func (p *parser) parseLine(content string) error {
	p.column = 1
	if !utf8.ValidString(content) {
		return p.errorf(1, "invalid UTF-8")
	}
	first := true
	for col, word := range words(content) {
		if !first && p.inQuote() {
			if err := p.quote.space(); err != "" {
				return p.errorf(col-1, "%s", err)
			}
		}
		first = false
		if word == "" {
			continue
		}
		p.column = col
		if word[0] == '#' && !p.inQuote() {
			break
		}
		if err := p.word(word); err != nil {
			return err
		}
		p.column = col + utf8.RuneCountInString(word)
	}
	return nil
}

// endOfLine enforces that a value starts on the line that asked for it.
func (p *parser) endOfLine() error {
	f := p.top()
	if p.hasKey || (f.context == awaitingValue && !f.list) {
		return p.errorf(p.column, "value must be on the same line")
	}
	return nil
}

func (p *parser) endOfInput() error {
	if p.annotations.Len() > 0 {
		return p.errorf(p.column, "annotations pointing to nowhere")
	}
	if p.hasKey {
		return p.errorf(p.column, "pair not assigned")
	}
	if len(p.frames) == 1 {
		return nil
	}
	switch f := p.top(); f.context {
	case seeking:
		if f.opener == modifyOpener {
			return p.errorf(p.column, "modify pairs is not closed")
		}
		return p.errorf(p.column, "pairs is not closed")
	case awaitingValue:
		if f.list {
			return p.errorf(p.column, "list is not closed")
		}
		return p.errorf(p.column, "pair is missing value")
	default:
		return p.errorf(p.column, "text is not closed")
	}
}

func (p *parser) word(word string) error {
	switch p.top().context {
	case seeking:
		return p.seek(word)
	case awaitingValue:
		return p.await(word)
	default:
		return p.feedQuote(word, 0)
	}
}

func (p *parser) seek(word string) error {
	if p.hasKey {
		return p.operator(word)
	}
	switch {
	case word[0] == '@':
		return p.annotate(word)
	case word == ")" || word == "<":
		return p.closePairs(word)
	case word[0] == '\'':
		return p.openQuote(word, '\'', true)
	default:
		p.key, p.hasKey = word, true
		return nil
	}
}

// locate re-descends from the root of side to the entry its path addresses.
// It returns nil for an empty path.
func (p *parser) locate(s side) *Entry {
	var e *Entry
	var container Value = p.roots[s]
	for _, st := range p.paths[s] {
		switch c := container.(type) {
		case *Pairs:
			e, _ = c.Get(st.key)
		case List:
			e = c[st.index]
		default:
			panic("clpl: path does not address a container")
		}
		container = e.Value
	}
	return e
}

// pairs returns the pairs a seeking frame adds keys to.
func (p *parser) pairs(s side) *Pairs {
	if e := p.locate(s); e != nil {
		return e.Value.(*Pairs)
	}
	return p.roots[s]
}

// take hands the pending annotations to a new document entry.
func (p *parser) take(s side) Annotations {
	if s == annotationSide {
		return Annotations{}
	}
	a := p.annotations
	p.annotations = Annotations{}
	return a
}

func (p *parser) push(f frame) {
	p.frames = append(p.frames, f)
}

func (p *parser) descend(s side, st step) {
	p.paths[s] = append(p.paths[s], st)
}

func (p *parser) pop() {
	f := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]
	p.paths[f.side] = p.paths[f.side][:f.restore]
	if f.side == annotationSide && p.top().side == documentSide {
		p.finishAnnotation()
	}
}

func (p *parser) operator(op string) error {
	key := p.key
	p.hasKey = false
	s := p.top().side
	pairs := p.pairs(s)
	existing, bound := pairs.Get(key)
	depth := len(p.paths[s])

	switch op {
	case "=":
		if bound {
			return p.errorf(p.column, "trying to assign a value but the pair '%s' is already assigned", key)
		}
		pairs.Set(key, &Entry{Annotations: p.take(s), Value: None{}})
		p.descend(s, step{key: key})
		p.push(frame{context: awaitingValue, side: s, restore: depth})

	case "+":
		if !bound {
			existing = &Entry{Annotations: p.take(s), Value: List{}}
			pairs.Set(key, existing)
		}
		list, ok := existing.Value.(List)
		if !ok {
			return p.errorf(p.column, "trying to add a value to a list but the pair '%s' isn't a list", key)
		}
		existing.Value = append(list, &Entry{Annotations: p.take(s), Value: None{}})
		p.descend(s, step{key: key})
		p.descend(s, step{index: len(list)})
		p.push(frame{context: awaitingValue, side: s, restore: depth})

	case ">":
		if !bound {
			pairs.Set(key, &Entry{Annotations: p.take(s), Value: &Pairs{}})
		} else if _, ok := existing.Value.(*Pairs); !ok {
			return p.errorf(p.column, "trying to modify a pairs but the pair '%s' isn't a pairs", key)
		} else {
			pending := p.take(s)
			for name, a := range pending.All() {
				existing.Annotations.Set(name, a)
			}
		}
		p.descend(s, step{key: key})
		p.push(frame{context: seeking, side: s, restore: depth, opener: modifyOpener})

	case "(", "()", "[", "[]":
		p.hasKey = true
		if err := p.operator("="); err != nil {
			return err
		}
		return p.await(op)

	default:
		return p.errorf(p.column, "unexpected token '%s' after key '%s'", op, key)
	}
	return nil
}

func (p *parser) closePairs(word string) error {
	f := p.top()
	if word == ")" && f.opener != parenOpener {
		return p.errorf(p.column, "unexpected pairs closing with no pairs context")
	}
	if word == "<" && f.opener != modifyOpener {
		return p.errorf(p.column, "unexpected modify-pairs closing with no modify-pairs context")
	}
	if f.side == documentSide && p.annotations.Len() > 0 {
		return p.errorf(p.column, "annotations pointing to nowhere")
	}
	p.pop()
	return nil
}

func (p *parser) await(word string) error {
	f := p.top()
	switch {
	case word[0] == '@' && f.list:
		return p.annotate(word)
	case word == "]":
		if !f.list {
			return p.errorf(p.column, "unexpected list closing on non-list context")
		}
		if f.side == documentSide && p.annotations.Len() > 0 {
			return p.errorf(p.column, "annotations pointing to nowhere")
		}
		p.pop()
		return nil
	case word == ")" || word == "<":
		return p.errorf(p.column, "unexpected pairs closing while parsing value")
	case word == "(" || word == "[":
		p.open(word)
		return nil
	case word[0] == '\'':
		return p.openQuote(word, '\'', false)
	case word[0] == '"':
		return p.openQuote(word, '"', false)
	}
	v, err := decodeScalar(word)
	if err != "" {
		return p.errorf(p.column, "%s", err)
	}
	p.deliver(v)
	return nil
}

// deliver stores a complete value in the slot of the awaitingValue frame on
// top of the stack.
func (p *parser) deliver(v Value) {
	f := p.top()
	e := p.locate(f.side)
	if f.list {
		e.Value = append(e.Value.(List), &Entry{Annotations: p.take(f.side), Value: v})
		return
	}
	e.Value = v
	p.pop()
}

// open starts a nested pairs or list in the current slot.
func (p *parser) open(word string) {
	f := p.top()
	var v Value = List{}
	next := frame{context: awaitingValue, side: f.side, list: true}
	if word == "(" {
		v = &Pairs{}
		next = frame{context: seeking, side: f.side, opener: parenOpener}
	}

	e := p.locate(f.side)
	if !f.list {
		e.Value = v
		next.restore = f.restore
		*f = next
		return
	}
	list := e.Value.(List)
	e.Value = append(list, &Entry{Annotations: p.take(f.side), Value: v})
	next.restore = len(p.paths[f.side])
	p.descend(f.side, step{index: len(list)})
	p.push(next)
}

func (p *parser) openQuote(word string, delim rune, key bool) error {
	c := inSingleQuote
	if delim == '"' {
		c = inDoubleQuote
	}
	s := p.top().side
	p.push(frame{context: c, side: s, restore: len(p.paths[s]), key: key})
	p.quote.reset(delim)
	return p.feedQuote(word[1:], 1)
}

func (p *parser) feedQuote(word string, offset int) error {
	done, at, err := p.quote.feed(word)
	if err != "" {
		return p.errorf(p.column+offset+at, "%s", err)
	}
	if !done {
		return nil
	}
	text := p.quote.text.String()
	f := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]
	if f.key {
		p.key, p.hasKey = text, true
		return nil
	}
	p.deliver(Text(text))
	return nil
}

func (p *parser) annotate(word string) error {
	if p.top().side == annotationSide {
		return p.errorf(p.column, "cannot parse annotations inside annotations")
	}
	name, value, hasValue := strings.Cut(word[1:], "=")
	if name == "" {
		return p.errorf(p.column+1, "annotation with no name")
	}
	if !hasValue {
		p.annotations.Set(name, &Annotation{Value: None{}})
		return nil
	}

	column := p.column
	p.column += 1 + utf8.RuneCountInString(name) + 1
	defer func() { p.column = column }()
	if value == "" {
		return p.errorf(p.column, "annotation '%s' is missing value", name)
	}

	p.annotationName = name
	p.roots[annotationSide] = &Pairs{}
	p.roots[annotationSide].Set(name, &Entry{Value: None{}})
	p.paths[annotationSide] = []step{{key: name}}
	p.push(frame{context: awaitingValue, side: annotationSide, restore: 0})
	return p.word(value)
}

// finishAnnotation moves a completed annotation value into the pending set.
func (p *parser) finishAnnotation() {
	e, _ := p.roots[annotationSide].Get(p.annotationName)
	p.annotations.Set(p.annotationName, &Annotation{Value: toAnnotationValue(e.Value)})
	p.roots[annotationSide] = nil
}

func toAnnotationValue(v Value) AnnotationValue {
	switch v := v.(type) {
	case None:
		return v
	case Boolean:
		return v
	case Number:
		return v
	case Text:
		return v
	case BigInt:
		return v
	case List:
		out := make(AnnotationList, len(v))
		for i, e := range v {
			out[i] = &Annotation{Value: toAnnotationValue(e.Value)}
		}
		return out
	case *Pairs:
		out := &Annotations{}
		for key, e := range v.All() {
			out.Set(key, &Annotation{Value: toAnnotationValue(e.Value)})
		}
		return out
	default:
		panic("Unknown Value")
	}
}
