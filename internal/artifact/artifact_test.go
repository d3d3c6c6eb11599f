package artifact

import (
	"encoding/json"
	"testing"
)

func TestTypesAreKnown(t *testing.T) {
	for _, typ := range Types() {
		if !typ.Known() {
			t.Errorf("Types() returned unknown type %q", typ)
		}
	}
	if Type("Storyboard").Known() {
		t.Error("unexpected type reported as known")
	}
}

func TestSchemaVersionDefault(t *testing.T) {
	doc := Document{"script_id": "x"}
	if got := doc.SchemaVersion(); got != DefaultSchemaVersion {
		t.Fatalf("SchemaVersion() = %q, want %q", got, DefaultSchemaVersion)
	}

	doc["schema_version"] = "2.1.0"
	if got := doc.SchemaVersion(); got != "2.1.0" {
		t.Fatalf("SchemaVersion() = %q, want 2.1.0", got)
	}
}

func TestParseDocumentKeepsNumberLiterals(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"duration_sec": 3.40, "count": 7}`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	num, ok := doc["duration_sec"].(json.Number)
	if !ok {
		t.Fatalf("duration_sec decoded as %T, want json.Number", doc["duration_sec"])
	}
	if num.String() != "3.40" {
		t.Fatalf("literal = %s, want 3.40", num)
	}
}

func TestDocumentOfRoundTripsStructs(t *testing.T) {
	type sample struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	doc, err := DocumentOf(sample{ID: "a", Score: 1.5})
	if err != nil {
		t.Fatalf("DocumentOf: %v", err)
	}
	if doc["id"] != "a" {
		t.Fatalf("id = %v", doc["id"])
	}
	if _, ok := doc["score"].(json.Number); !ok {
		t.Fatalf("score decoded as %T, want json.Number", doc["score"])
	}
}
