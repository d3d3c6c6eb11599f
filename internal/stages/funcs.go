package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"reelpipe/internal/artifact"
	"reelpipe/internal/pipeline"
)

// All returns the stage function for every pipeline artifact type.
func All() map[artifact.Type]pipeline.Func {
	return map[artifact.Type]pipeline.Func{
		artifact.TypeScript:        GenerateScript{},
		artifact.TypeShotList:      ScriptToShotList{},
		artifact.TypeAssetManifest: ShotListToAssetManifest{},
		artifact.TypeRenderPlan:    BuildRenderPlan{},
		artifact.TypeRenderOutput:  RenderPreview{},
	}
}

// shortRun is the run-id prefix embedded in artifact identifiers.
func shortRun(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

func speakerID(character string) string {
	return strings.ToLower(strings.ReplaceAll(character, " ", "_"))
}

// decode converts a generic input document into a typed view.
func decode(doc artifact.Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("stages: marshal input: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("stages: decode input: %w", err)
	}
	return nil
}

func requireInput(req pipeline.Request, t artifact.Type) (artifact.Document, error) {
	doc, ok := req.Inputs[t]
	if !ok {
		return nil, fmt.Errorf("stages: input %s not supplied", t)
	}
	return doc, nil
}
