package canonical

import (
	"encoding/json"
	"testing"
)

func TestMarshalSortsKeysAndStripsWhitespace(t *testing.T) {
	doc := map[string]any{
		"zulu":  "last",
		"alpha": "first",
		"nested": map[string]any{
			"b": []any{"x", "y"},
			"a": true,
		},
	}
	got, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"alpha":"first","nested":{"a":true,"b":["x","y"]},"zulu":"last"}`
	if string(got) != want {
		t.Fatalf("canonical form = %s, want %s", got, want)
	}
}

func TestMarshalPreservesNumberLiterals(t *testing.T) {
	doc := map[string]any{
		"trailing": json.Number("1.10"),
		"integer":  json.Number("42"),
		"exponent": json.Number("1e3"),
	}
	got, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"exponent":1e3,"integer":42,"trailing":1.10}`
	if string(got) != want {
		t.Fatalf("canonical form = %s, want %s", got, want)
	}
}

func TestHashDocumentIgnoresKeyOrderAndFormatting(t *testing.T) {
	first, err := HashDocument(map[string]any{"a": json.Number("1"), "b": "two"})
	if err != nil {
		t.Fatalf("HashDocument: %v", err)
	}

	var reordered any
	if err := json.Unmarshal([]byte("{\n  \"b\": \"two\",\n  \"a\": 1\n}"), &reordered); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	second, err := HashDocument(reordered)
	if err != nil {
		t.Fatalf("HashDocument: %v", err)
	}

	if first != second {
		t.Fatalf("hashes differ: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("hash length = %d, want 64", len(first))
	}
}

func TestHashDocumentDistinguishesValues(t *testing.T) {
	first, err := HashDocument(map[string]any{"a": json.Number("1")})
	if err != nil {
		t.Fatalf("HashDocument: %v", err)
	}
	second, err := HashDocument(map[string]any{"a": json.Number("2")})
	if err != nil {
		t.Fatalf("HashDocument: %v", err)
	}
	if first == second {
		t.Fatal("distinct documents hashed identically")
	}
}

func TestMarshalNormalizesStructs(t *testing.T) {
	type payload struct {
		Name  string  `json:"name"`
		Count int     `json:"count"`
		Ratio float64 `json:"ratio"`
	}
	got, err := Marshal(payload{Name: "clip", Count: 3, Ratio: 0.5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"count":3,"name":"clip","ratio":0.5}`
	if string(got) != want {
		t.Fatalf("canonical form = %s, want %s", got, want)
	}
}
