package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies one of the five fixed artifact kinds. Within a run an
// artifact's identity is its type: at most one current artifact of each
// type exists per run.
type Type string

const (
	TypeScript        Type = "Script"
	TypeShotList      Type = "ShotList"
	TypeAssetManifest Type = "AssetManifest"
	TypeRenderPlan    Type = "RenderPlan"
	TypeRenderOutput  Type = "RenderOutput"
)

// Types returns all artifact types in stage order.
func Types() []Type {
	return []Type{TypeScript, TypeShotList, TypeAssetManifest, TypeRenderPlan, TypeRenderOutput}
}

// Known reports whether t is one of the five pipeline artifact types.
func (t Type) Known() bool {
	switch t {
	case TypeScript, TypeShotList, TypeAssetManifest, TypeRenderPlan, TypeRenderOutput:
		return true
	}
	return false
}

// Document is a generic JSON artifact body. Numeric values are
// json.Number so canonical serialization preserves their literal form.
type Document map[string]any

// DefaultSchemaVersion is assumed when a document does not declare one.
const DefaultSchemaVersion = "1.0.0"

// SchemaVersion returns the document's declared schema_version, or the
// default when the field is absent or not a string.
func (d Document) SchemaVersion() string {
	if v, ok := d["schema_version"].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return DefaultSchemaVersion
}

// DocumentOf converts any JSON-marshalable value into a Document via an
// encoding round trip that keeps numeric literals intact.
func DocumentOf(value any) (Document, error) {
	if doc, ok := value.(Document); ok {
		return doc, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("artifact: marshal document: %w", err)
	}
	return ParseDocument(raw)
}

// ParseDocument decodes raw JSON into a Document with numeric literals
// preserved as json.Number.
func ParseDocument(raw []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("artifact: parse document: %w", err)
	}
	return doc, nil
}
