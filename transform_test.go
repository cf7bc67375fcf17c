package clpl_test

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/clpl-lang/clpl-go"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func TestTransformRecord(t *testing.T) {
	doc, err := clpl.Parse([]byte("name = \"Ann\"\nage = 30\ntags [\n  \"x\"\n  \"y\"\n]\nbig = 12345678901234567890n\nnothing = none\nnested ( on = yes )"))
	if err != nil {
		t.Fatal(err)
	}
	record, err := clpl.Transform(doc, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]any{
		"name":    "Ann",
		"age":     float64(30),
		"tags":    []any{"x", "y"},
		"big":     bigInt("12345678901234567890").Int,
		"nothing": nil,
		"nested":  map[string]any{"on": true},
	}
	if diff := cmp.Diff(expected, record, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
		t.Errorf("Unexpected record (-want +got):\n%s", diff)
	}
}

func TestTransformOrdered(t *testing.T) {
	doc, err := clpl.Parse([]byte("z = 1\na ( y = 2 b = [ 3 ] )\nm = 4"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := clpl.Transform(doc, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := out.(*clpl.Map)
	if diff := cmp.Diff([]string{"z", "a", "m"}, m.Keys()); diff != "" {
		t.Errorf("Unexpected keys (-want +got):\n%s", diff)
	}
	bytes, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(bytes) != `{"z":1,"a":{"y":2,"b":[3]},"m":4}` {
		t.Errorf("Unexpected JSON %s", bytes)
	}
}

func TestTransformCustom(t *testing.T) {
	doc, err := clpl.Parse([]byte("a = 1\nb [ 2 @secret 3 ]"))
	if err != nil {
		t.Fatal(err)
	}
	var fn clpl.Transformer
	fn = func(e *clpl.Entry, record bool) (any, error) {
		if e.Annotations.Has("secret") {
			return nil, fmt.Errorf("secret value")
		}
		if l, ok := e.Value.(clpl.List); ok {
			for i, item := range l {
				if _, err := fn(item, record); err != nil {
					return nil, &clpl.MappingError{Path: clpl.Path{{Kind: clpl.IndexSegment, Index: i}}, Err: err}
				}
			}
		}
		return clpl.DefaultTransformer(e, record)
	}
	_, err = clpl.Transform(doc, true, fn)
	var merr *clpl.MappingError
	if !errors.As(err, &merr) {
		t.Fatalf("Expected a *MappingError, got %v", err)
	}
	if err.Error() != "secret value at key 'b' -> index 1" {
		t.Errorf("Unexpected error %q", err.Error())
	}
}

func TestTransformAnnotations(t *testing.T) {
	doc, err := clpl.Parse([]byte("@since=2\n@owner=( team = \"infra\" )\n@tags=[ 'a' 'b' ]\n@flag\nv = 1"))
	if err != nil {
		t.Fatal(err)
	}
	e, _ := doc.Get("v")
	out, err := clpl.TransformAnnotations(&e.Annotations, true)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]any{
		"since": float64(2),
		"owner": map[string]any{"team": "infra"},
		"tags":  []any{"a", "b"},
		"flag":  nil,
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Errorf("Unexpected annotations (-want +got):\n%s", diff)
	}
}

func TestEndToEnd(t *testing.T) {
	source := "name = \"Ann\"\nage = 30\ntags [\n  \"x\"\n  \"y\"\n]"
	doc, err := clpl.Parse([]byte(source))
	if err != nil {
		t.Fatal(err)
	}

	expected := &clpl.Pairs{}
	expected.Set("name", &clpl.Entry{Value: clpl.Text("Ann")})
	expected.Set("age", &clpl.Entry{Value: clpl.Number(30)})
	expected.Set("tags", &clpl.Entry{Value: clpl.List{{Value: clpl.Text("x")}, {Value: clpl.Text("y")}}})
	if diff := cmp.Diff(expected, doc); diff != "" {
		t.Fatalf("Unexpected document (-want +got):\n%s", diff)
	}

	record, err := clpl.Transform(doc, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	built, err := clpl.Gen(record, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := clpl.Stringify(built, 2)
	if err != nil {
		t.Fatal(err)
	}
	again, err := clpl.Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(doc, again); diff != "" {
		t.Errorf("Round trip changed the document (-want +got):\n%s", diff)
	}
}
