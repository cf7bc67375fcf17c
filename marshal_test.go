package clpl_test

import (
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/clpl-lang/clpl-go"
)

func TestMarshal(t *testing.T) {
	str := "a"

	for _, test := range []struct {
		name string
		in   any
		out  string
	}{
		{
			name: "map",
			in: map[string]any{
				"a": 1,
				"b": 2,
			},
			out: "a = 1\nb = 2\n",
		},
		{
			name: "mixed",
			in: map[string]any{
				"a": []int{1, 2, 3},
				"b": "wow\nthere",
			},
			out: `
				a = [
				  1
				  2
				  3
				]
				b = "wow\nthere"
			`,
		},
		{
			name: "iface",
			in: struct {
				A any
				B *string
			}{
				A: any("wow"),
				B: &str,
			},
			out: `
				A = "wow"
				B = "a"
			`,
		},
		{
			name: "struct",
			in: struct {
				A int  `clpl:"a"`
				B bool `clpl:"b,omitempty"`
				c string
				D []int `clpl:"-"`
				E bool  `clpl:",omitempty"`
				F []byte
				G struct {
					H string
				}
			}{
				A: 1,
				B: false,
				c: "hi",
				D: []int{1},
				E: true,
				F: []byte{1, 2, 3},
			},
			out: `
				a = 1
				E = yes
				F = "AQID"
				G = (
				  H = ""
				)
			`,
		},
		{
			name: "big",
			in: map[string]any{
				"n": bigInt("123456789012345678901234567890").Int,
				"u": uint64(1<<64 - 1),
			},
			out: `
				n = 123456789012345678901234567890n
				u = 18446744073709551615n
			`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			bytes, err := clpl.Marshal(test.in)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}
			out := strings.Replace(strings.Trim(strings.Replace(test.out, "\n\t\t\t\t", "\n", -1), "\n\t")+"\n", "\t", "    ", -1)
			if string(bytes) != out {
				t.Fatalf("expected\n%s\ngot\n%s", out, string(bytes))
			}
		})
	}

}

func TestMarshalIndent(t *testing.T) {
	bytes, err := clpl.MarshalIndent(map[string]any{"a": []any{1, map[string]int{"b": 2}}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(bytes) != "a = [ 1 ( b = 2 ) ]\n" {
		t.Errorf("unexpected output %q", string(bytes))
	}
}

func TestUnmarshal(t *testing.T) {

	tests := []struct {
		name     string
		input    string
		target   interface{}
		expected interface{}
		wantErr  bool
	}{
		{
			name: "basic string map",
			input: `
name = "John"
age = "30"
`,
			target:   &map[string]string{},
			expected: map[string]string{"name": "John", "age": "30"},
		},
		{
			name: "nested map",
			input: `
user (
    name = "John"
    age = "30"
)
settings (
    theme = "dark"
    debug = "true"
)
`,
			target: &map[string]map[string]string{},
			expected: map[string]map[string]string{
				"user":     {"name": "John", "age": "30"},
				"settings": {"theme": "dark", "debug": "true"},
			},
		},
		{
			name: "integer keys",
			input: `
200 = "ok"
404 = "not found"
`,
			target:   &map[int]string{},
			expected: map[int]string{200: "ok", 404: "not found"},
		},
		{
			name: "simple list",
			input: `
colors [
    "red"
    "green"
    "blue"
]
`,
			target: &struct {
				Colors []string
			}{},
			expected: struct {
				Colors []string
			}{
				Colors: []string{"red", "green", "blue"},
			},
		},
		{
			name: "mixed types struct",
			input: `
name = "John"
age = 30
active = yes
score = 95.5
tags + "developer"
tags + "golang"
first_seen = 1_700_000_000
`,
			target: &struct {
				Name      string
				Age       int
				Active    bool
				Score     float64
				Tags      []string
				FirstSeen uint32
			}{},
			expected: struct {
				Name      string
				Age       int
				Active    bool
				Score     float64
				Tags      []string
				FirstSeen uint32
			}{
				Name:      "John",
				Age:       30,
				Active:    true,
				Score:     95.5,
				Tags:      []string{"developer", "golang"},
				FirstSeen: 1700000000,
			},
		},
		{
			name: "continued string",
			input: `
description = "This is a\n\
    multiline\n\
    description"
`,
			target: &struct {
				Description string
			}{},
			expected: struct {
				Description string
			}{
				Description: "This is a\nmultiline\ndescription",
			},
		},
		{
			name: "array",
			input: `
point [ 1 2 ]
`,
			target:   &struct{ Point [3]int }{},
			expected: struct{ Point [3]int }{Point: [3]int{1, 2, 0}},
		},
		{
			name: "invalid number",
			input: `
age = "not a number"
`,
			target: &struct {
				Age int
			}{},
			wantErr: true,
		},
		{
			name: "fractional integer",
			input: `
age = 1.5
`,
			target: &struct {
				Age int
			}{},
			wantErr: true,
		},
		{
			name: "overflow",
			input: `
small = 300
`,
			target: &struct {
				Small int8
			}{},
			wantErr: true,
		},
		{
			name:    "nil pointer",
			input:   `test = "value"`,
			target:  nil,
			wantErr: true,
		},
		{
			name: "escaped strings",
			input: `
message = "Hello \"World\""
path = "C:\\Program Files"
`,
			target: &map[string]string{},
			expected: map[string]string{
				"message": `Hello "World"`,
				"path":    `C:\Program Files`,
			},
		},
		{
			name: "complex nested structure",
			input: `
users (
    john (
        name = "John Doe"
        age = 30
        roles [ "admin" "user" ]
    )
    jane (
        name = "Jane Smith"
        age = 25
        roles [ "user" ]
    )
)
`,
			target: &map[string]map[string]any{},
			expected: map[string]map[string]any{
				"users": {
					"john": map[string]any{
						"name": "John Doe",
						"age":  float64(30),
						"roles": []any{
							"admin",
							"user",
						},
					},
					"jane": map[string]any{
						"name": "Jane Smith",
						"age":  float64(25),
						"roles": []any{
							"user",
						},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := clpl.Unmarshal([]byte(tt.input), tt.target)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			// For structs and maps, compare the actual value to the expected
			actual := reflect.ValueOf(tt.target).Elem().Interface()
			if !reflect.DeepEqual(actual, tt.expected) {
				t.Errorf("got %+v, want %+v", actual, tt.expected)
			}
		})
	}
}

func TestUnmarshalMapKeys(t *testing.T) {
	var codes map[int8]string
	if err := clpl.Unmarshal([]byte("-3 = \"low\"\n'12' = \"high\""), &codes); err != nil {
		t.Fatal(err)
	}
	if expected := (map[int8]string{-3: "low", 12: "high"}); !reflect.DeepEqual(codes, expected) {
		t.Errorf("expected %v, got %v", expected, codes)
	}

	for _, test := range []struct {
		input string
		err   string
	}{
		{`x = "ok"`, `invalid key: expected integer, got "x" at key 'x'`},
		{`300 = "ok"`, "invalid key: invalid int8: 300 at key '300'"},
	} {
		var m map[int8]string
		err := clpl.Unmarshal([]byte(test.input), &m)
		if err == nil || err.Error() != test.err {
			t.Errorf("expected %q, got %v", test.err, err)
		}
	}
}

func TestUnmarshalErrors(t *testing.T) {
	type Test struct {
		Time time.Time `clpl:"time"`
		Age  int
		Tags []string
		A    [1]int `clpl:"a"`
	}

	for _, test := range []struct {
		input string
		err   string
	}{
		{`tyme = "2024-11-01T16:00:00Z"`, "unknown field at key 'tyme'"},
		{`age = "30"`, "expected number, got text at key 'age'"},
		{`age = 30.5`, "expected integer, got 30.5 at key 'age'"},
		{`tags [ "a" 2 ]`, "expected text, got number at key 'tags' -> index 1"},
		{`a [ 1 2 ]`, "too many elements, limit 1 at key 'a'"},
		{`time = 5`, "expected text, got number at key 'time'"},
		{`age =`, "1:6: pair is missing value"},
	} {
		output := Test{}
		err := clpl.Unmarshal([]byte(test.input), &output)
		if err == nil {
			t.Errorf("expected error for %s, got nil", test.input)
			continue
		}
		if err.Error() != test.err {
			t.Errorf("expected %q, got %q", test.err, err.Error())
		}
	}
}

type script struct {
	s string
}

func (s script) MarshalText() ([]byte, error) {
	return []byte(strings.TrimSpace(s.s)), nil
}

func (s *script) UnmarshalText(b []byte) error {
	s.s = string(b) + "\n"
	return nil
}

func TestTextMarshal(t *testing.T) {
	type Test struct {
		Time   time.Time `clpl:"time"`
		Script script    `clpl:"script"`
	}

	input := Test{
		Time:   time.Date(2024, time.November, 1, 16, 0, 0, 0, time.UTC),
		Script: script{s: "#!/bin/bash\necho hello\n"},
	}
	bytes, err := clpl.Marshal(input)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	expected := `time = "2024-11-01T16:00:00Z"
script = "#!/bin/bash\necho hello"
`

	if string(bytes) != expected {
		t.Errorf("expected %#v, got %#v", expected, string(bytes))
	}

	output := Test{}
	if err := clpl.Unmarshal(bytes, &output); err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	if !reflect.DeepEqual(input, output) {
		t.Errorf("got %+v, want %+v", output, input)
	}
}

func TestBytes(t *testing.T) {
	type Test struct {
		Secret []byte `clpl:"secret"`
	}

	input := Test{
		Secret: []byte("secret data"),
	}
	bytes, err := clpl.Marshal(input)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	expected := "secret = \"c2VjcmV0IGRhdGE\"\n"
	if expected != string(bytes) {
		t.Errorf("expected %#v, got %#v", expected, string(bytes))
	}

	output := Test{}
	if err := clpl.Unmarshal(bytes, &output); err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	if !reflect.DeepEqual(input, output) {
		t.Errorf("got %+v, want %+v", output, input)
	}

	input = Test{
		Secret: []byte("secret data, but this time, very, very, very, VERY, VERY long"),
	}
	bytes, err = clpl.Marshal(input)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	expected = `secret = "c2VjcmV0IGRhdGEsIGJ1dCB0aGlzIHRpbWUsIHZlcnksIHZlcnksIHZlcnksIFZFUlksIFZFUlkg\
  bG9uZw"
`

	if expected != string(bytes) {
		t.Errorf("expected %#v, got %#v", expected, string(bytes))
	}

	output = Test{}
	if err := clpl.Unmarshal(bytes, &output); err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	if !reflect.DeepEqual(input, output) {
		t.Errorf("got %+v, want %+v", output, input)
	}
}

func TestNone(t *testing.T) {
	type Test struct {
		List []any             `clpl:"list"`
		Map  map[string]string `clpl:"map"`
		Ptr  *int              `clpl:"ptr"`
	}

	one := 1
	output := Test{List: []any{1}, Map: map[string]string{}, Ptr: &one}
	if err := clpl.Unmarshal([]byte("list = none\nmap = none\nptr = none"), &output); err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}

	if output.List != nil || output.Map != nil || output.Ptr != nil {
		t.Errorf("expected none to clear every field, got %+v", output)
	}

	type Test2 struct {
		String string `clpl:"string"`
	}

	output2 := Test2{}
	if err := clpl.Unmarshal([]byte("string = []"), &output2); err == nil {
		t.Errorf("expected error, got nil")
	} else if err.Error() != "expected text, got list at key 'string'" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUnmarshalBigInt(t *testing.T) {
	type Test struct {
		N *big.Int `clpl:"n"`
		M big.Int  `clpl:"m"`
		U uint64   `clpl:"u"`
		F float64  `clpl:"f"`
	}

	output := Test{}
	input := "n = 123456789012345678901234567890n\nm = 5\nu = 18446744073709551615n\nf = 2n"
	if err := clpl.Unmarshal([]byte(input), &output); err != nil {
		t.Fatal(err)
	}
	if output.N.Cmp(bigInt("123456789012345678901234567890").Int) != 0 {
		t.Errorf("unexpected n %v", output.N)
	}
	if output.M.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("unexpected m %v", &output.M)
	}
	if output.U != 1<<64-1 || output.F != 2 {
		t.Errorf("unexpected u %v or f %v", output.U, output.F)
	}
}

func TestUnmarshalAny(t *testing.T) {
	var v any
	if err := clpl.Unmarshal([]byte("a [ 1 yes none ]\nb ( c = 'd' )"), &v); err != nil {
		t.Fatal(err)
	}
	expected := map[string]any{
		"a": []any{float64(1), true, nil},
		"b": map[string]any{"c": "d"},
	}
	if !reflect.DeepEqual(v, expected) {
		t.Errorf("got %+v, want %+v", v, expected)
	}
}

type flagged struct {
	Value      string
	Deprecated bool
}

func (f *flagged) UnmarshalCLPL(e *clpl.Entry) error {
	f.Deprecated = e.Annotations.Has("deprecated")
	return clpl.UnmarshalEntry(&clpl.Entry{Value: e.Value}, &f.Value)
}

type matcher struct {
	Matches string `clpl:"matches"`
	Docs    string `clpl:"docs"`
}

func (m *matcher) UnmarshalCLPL(e *clpl.Entry) error {
	if t, ok := e.Value.(clpl.Text); ok {
		m.Matches = string(t)
		return nil
	}
	type plain matcher
	return clpl.UnmarshalEntry(e, (*plain)(m))
}

func TestUnmarshaler(t *testing.T) {
	type unmarshalTest struct {
		Scalar *matcher `clpl:"scalar"`
		Map    *matcher `clpl:"map"`
		Old    flagged  `clpl:"old"`
		New    flagged  `clpl:"new"`
	}

	input := `
scalar = "test"
map (
  matches = ".*"
  docs = "test"
)
@deprecated
old = "x"
new = "y"`

	v := &unmarshalTest{}
	if err := clpl.Unmarshal([]byte(input), v); err != nil {
		t.Fatal(err)
	}

	expected := &unmarshalTest{
		Scalar: &matcher{Matches: "test", Docs: ""},
		Map:    &matcher{Matches: ".*", Docs: "test"},
		Old:    flagged{Value: "x", Deprecated: true},
		New:    flagged{Value: "y"},
	}

	if !reflect.DeepEqual(v, expected) {
		t.Errorf("expected %+v, got %+v", expected, v)
	}

	if err := clpl.Unmarshal([]byte("map ( matches = 1 )"), v); err == nil || err.Error() != "expected text, got number at key 'map' -> key 'matches'" {
		t.Errorf("unexpected error: %v", err)
	}
}
