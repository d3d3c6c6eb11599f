package stages

import (
	"context"
	"fmt"

	"reelpipe/internal/artifact"
	"reelpipe/internal/pipeline"
)

// GenerateScript produces a two-scene stub script from the project
// configuration. Reads nothing; writes Script.
type GenerateScript struct{}

func (GenerateScript) Run(_ context.Context, req pipeline.Request) (artifact.Document, error) {
	projectID := req.Project.ID
	title := req.Project.Title
	genre, _ := req.Project.Doc["genre"].(string)
	if genre == "" {
		genre = "drama"
	}

	script := scriptDoc{
		SchemaVersion: artifact.DefaultSchemaVersion,
		ScriptID:      fmt.Sprintf("script-%s-%s", projectID, shortRun(req.RunID)),
		ProjectID:     projectID,
		Title:         title,
		Genre:         genre,
		Scenes: []sceneDoc{
			{
				SceneID:   "scene-001",
				Location:  "INT. COMMAND CENTER",
				TimeOfDay: "NIGHT",
				Actions: []actionDoc{
					{Type: "action", Text: "The room hums with the glow of monitors."},
					{Type: "dialogue", Character: "COMMANDER", Text: "We have lost contact with the probe."},
					{Type: "dialogue", Character: "ANALYST", Text: "The signal disappeared twelve minutes ago."},
				},
			},
			{
				SceneID:   "scene-002",
				Location:  "EXT. LAUNCH PAD",
				TimeOfDay: "DAWN",
				Actions: []actionDoc{
					{Type: "action", Text: "A lone figure walks toward the rocket."},
					{Type: "dialogue", Character: "COMMANDER", Text: "Prepare for immediate launch."},
				},
			},
		},
	}

	return artifact.DocumentOf(script)
}
