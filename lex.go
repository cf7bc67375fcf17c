package clpl

import (
	"fmt"
	"iter"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var lineRegexp = regexp.MustCompile("\r\n|\r|\n")

func lines(input string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		lno := 1
		for match := lineRegexp.FindStringIndex(input); match != nil; match = lineRegexp.FindStringIndex(input) {
			if !yield(lno, input[:match[0]]) {
				return
			}
			input = input[match[1]:]
			lno++
		}
		yield(lno, input)
	}
}

// words splits a line on every space without collapsing runs, so an empty
// word stands for one extra space. Each word is yielded with its 1-based
// column; the space after a word consumes one column.
func words(line string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		col := 1
		for word := range strings.SplitSeq(line, " ") {
			if !yield(col, word) {
				return
			}
			col += utf8.RuneCountInString(word) + 1
		}
	}
}

var digitsRegexp = regexp.MustCompile(`^[0-9]+$`)

func isNumber(word string) bool {
	return word[0] == '-' || (word[0] >= '0' && word[0] <= '9')
}

// joinGroups removes the _ separators from a run of digit groups.
// The returned string is empty if no error was found.
func joinGroups(s, what string) (string, string) {
	groups := strings.Split(s, "_")
	for i, g := range groups {
		if g != "" {
			continue
		}
		switch {
		case len(groups) == 1:
			return "", fmt.Sprintf("missing %s", what)
		case i == 0:
			return "", fmt.Sprintf("leading separator on %s", what)
		case i == len(groups)-1:
			return "", fmt.Sprintf("trailing separator on %s", what)
		default:
			return "", fmt.Sprintf("repeated separator on %s", what)
		}
	}
	digits := strings.Join(groups, "")
	if !digitsRegexp.MatchString(digits) {
		return "", fmt.Sprintf("invalid %s", what)
	}
	return digits, ""
}

func decodeNumber(word string) (Value, string) {
	magnitude, negative := strings.CutPrefix(word, "-")

	if digits, ok := strings.CutSuffix(magnitude, "n"); ok {
		digits, err := joinGroups(digits, "bigint")
		if err != "" {
			return nil, err
		}
		n, _ := new(big.Int).SetString(digits, 10)
		if negative {
			n.Neg(n)
		}
		return BigInt{n}, ""
	}

	parts := strings.Split(magnitude, ".")
	if len(parts) > 2 {
		return nil, "number with more than one '.'"
	}
	integers, err := joinGroups(parts[0], "number integers")
	if err != "" {
		return nil, err
	}
	if len(parts) == 2 {
		decimals, err := joinGroups(parts[1], "number decimals")
		if err != "" {
			return nil, err
		}
		integers += "." + decimals
	}
	f, perr := strconv.ParseFloat(integers, 64)
	if perr != nil || math.IsInf(f, 0) {
		return nil, "number out of range"
	}
	if negative {
		f = -f
	}
	return Number(f), ""
}

// decodeScalar converts a single unquoted word into a value.
func decodeScalar(word string) (Value, string) {
	switch word {
	case "none":
		return None{}, ""
	case "yes":
		return Boolean(true), ""
	case "no":
		return Boolean(false), ""
	case "[]":
		return List{}, ""
	case "()":
		return &Pairs{}, ""
	}
	if word != "" && isNumber(word) {
		return decodeNumber(word)
	}
	return nil, fmt.Sprintf("unexpected word '%s' while parsing value", word)
}

// quote accumulates a quoted literal that may span several words and lines.
type quote struct {
	delim  rune
	text   strings.Builder
	escape bool
	hex    []rune
	high   rune
}

func (q *quote) reset(delim rune) {
	q.delim = delim
	q.text.Reset()
	q.escape = false
	q.hex = nil
	q.high = 0
}

// space records one delimiter between words. A pending escape swallows it,
// which is how a trailing backslash continues a literal onto the next line.
// A space may not separate the halves of a surrogate pair.
func (q *quote) space() string {
	if q.escape {
		return ""
	}
	if q.high != 0 {
		return "unpaired surrogate in unicode escape"
	}
	q.text.WriteByte(' ')
	return ""
}

// feed decodes the next word of the literal. It reports whether the closing
// quote was found; on error it returns the rune offset within word and a
// message.
func (q *quote) feed(word string) (bool, int, string) {
	q.escape = false
	offset := 0
	for i, r := range word {
		if q.hex != nil {
			if !isHex(r) {
				return false, offset, fmt.Sprintf("unexpected non-hex character '%c' in unicode escape", r)
			}
			q.hex = append(q.hex, r)
			if len(q.hex) == 4 {
				code, _ := strconv.ParseUint(string(q.hex), 16, 32)
				q.hex = nil
				if err := q.unicode(rune(code)); err != "" {
					return false, offset, err
				}
			}
			offset++
			continue
		}
		if q.high != 0 && !(q.escape && r == 'u') && !(r == '\\' && !q.escape) {
			return false, offset, "unpaired surrogate in unicode escape"
		}

		if q.escape {
			q.escape = false
			if err := q.escaped(r); err != "" {
				return false, offset, err
			}
			offset++
			continue
		}

		switch r {
		case q.delim:
			if rest := word[i+1:]; rest != "" {
				return false, offset + 1, fmt.Sprintf("unexpected '%s' after closing quote", rest)
			}
			return true, offset, ""
		case '\\':
			q.escape = true
		default:
			q.text.WriteRune(r)
		}
		offset++
	}
	if q.hex != nil {
		return false, offset, fmt.Sprintf("expecting 4 hexadecimal characters, got %d", len(q.hex))
	}
	return false, offset, ""
}

func (q *quote) escaped(r rune) string {
	if q.delim == '\'' {
		if r != '\'' {
			q.text.WriteByte('\\')
		}
		q.text.WriteRune(r)
		return ""
	}
	switch r {
	case '\'', '"', '\\':
		q.text.WriteRune(r)
	case 'n':
		q.text.WriteByte('\n')
	case 'r':
		q.text.WriteByte('\r')
	case 't':
		q.text.WriteByte('\t')
	case 'b':
		q.text.WriteByte('\b')
	case 'f':
		q.text.WriteByte('\f')
	case 'v':
		q.text.WriteByte('\v')
	case 'u':
		q.hex = make([]rune, 0, 4)
	default:
		return fmt.Sprintf("unsupported escape character '\\%c'", r)
	}
	return ""
}

func (q *quote) unicode(code rune) string {
	switch {
	case q.high != 0:
		r := utf16.DecodeRune(q.high, code)
		q.high = 0
		if r == utf8.RuneError {
			return "unpaired surrogate in unicode escape"
		}
		q.text.WriteRune(r)
	case utf16.IsSurrogate(code) && code < 0xdc00:
		q.high = code
	case utf16.IsSurrogate(code):
		return "unpaired surrogate in unicode escape"
	default:
		q.text.WriteRune(code)
	}
	return ""
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
