package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/scott-cotton/cli"
)

func TestQuery(t *testing.T) {
	doc := input{name: "-", data: []byte("name = \"Ann\"\nage = 30\ntags [ \"x\" \"y\" ]\nserver ( port = 80 )")}
	for _, test := range []struct {
		expr string
		out  string
	}{
		{`age + 1`, "31\n"},
		{`name + "!"`, "\"Ann!\"\n"},
		{`len(tags)`, "2\n"},
		{`server.port`, "80\n"},
		{`missing == nil`, "true\n"},
		{`{"who": name}`, "{\"who\":\"Ann\"}\n"},
		{`filter(tags, # != "x")`, "[\"y\"]\n"},
	} {
		t.Run(test.expr, func(t *testing.T) {
			program, err := compileQuery(test.expr)
			if err != nil {
				t.Fatal(err)
			}
			var out bytes.Buffer
			if err := query(&out, program, doc); err != nil {
				t.Fatal(err)
			}
			if out.String() != test.out {
				t.Errorf("expected %q, got %q", test.out, out.String())
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	if _, err := compileQuery("1 +"); !errors.Is(err, cli.ErrUsage) {
		t.Errorf("expected a usage error, got %v", err)
	}
	program, err := compileQuery("a.b")
	if err != nil {
		t.Fatal(err)
	}
	err = query(&bytes.Buffer{}, program, input{name: "bad.clpl", data: []byte("a =")})
	if err == nil || err.Error() != "bad.clpl:1:4: pair is missing value" {
		t.Errorf("Unexpected error %v", err)
	}
}
