package stages

import (
	"context"
	"fmt"

	"reelpipe/internal/artifact"
	"reelpipe/internal/canonical"
	"reelpipe/internal/pipeline"
)

// RenderPreview simulates the preview render. No media is produced:
// the output records placeholder paths and a content hash derived
// from them, plus the total duration of the cut.
type RenderPreview struct{}

func (RenderPreview) Run(_ context.Context, req pipeline.Request) (artifact.Document, error) {
	planInput, err := requireInput(req, artifact.TypeRenderPlan)
	if err != nil {
		return nil, err
	}
	shotListInput, err := requireInput(req, artifact.TypeShotList)
	if err != nil {
		return nil, err
	}
	var plan renderPlanDoc
	if err := decode(planInput, &plan); err != nil {
		return nil, err
	}
	var shotList shotListDoc
	if err := decode(shotListInput, &shotList); err != nil {
		return nil, err
	}

	videoPath := fmt.Sprintf("placeholder://video/%s-%s.mp4", req.Project.ID, req.RunID)
	captionsPath := fmt.Sprintf("placeholder://captions/%s-%s.srt", req.Project.ID, req.RunID)
	contentHash, err := canonical.HashDocument(map[string]any{
		"video_path":    videoPath,
		"captions_path": captionsPath,
	})
	if err != nil {
		return nil, err
	}

	duration := 0.0
	for _, shot := range shotList.Shots {
		duration += shot.DurationSec
	}

	output := renderOutputDoc{
		SchemaVersion: artifact.DefaultSchemaVersion,
		OutputID:      fmt.Sprintf("output-%s-%s", req.Project.ID, shortRun(req.RunID)),
		ProjectID:     req.Project.ID,
		PlanRef:       plan.PlanID,
		VideoPath:     videoPath,
		CaptionsPath:  captionsPath,
		ContentHash:   contentHash,
		DurationSec:   duration,
	}
	return artifact.DocumentOf(output)
}
