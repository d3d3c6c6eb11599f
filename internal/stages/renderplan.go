package stages

import (
	"context"
	"fmt"

	"reelpipe/internal/artifact"
	"reelpipe/internal/pipeline"
)

// BuildRenderPlan resolves every manifest asset to a placeholder URI
// and fixes the preview render profile. The plan carries the shot
// list's timing lock so the renderer can refuse a stale cut.
type BuildRenderPlan struct{}

func (BuildRenderPlan) Run(_ context.Context, req pipeline.Request) (artifact.Document, error) {
	manifestInput, err := requireInput(req, artifact.TypeAssetManifest)
	if err != nil {
		return nil, err
	}
	shotListInput, err := requireInput(req, artifact.TypeShotList)
	if err != nil {
		return nil, err
	}
	var manifest assetManifestDoc
	if err := decode(manifestInput, &manifest); err != nil {
		return nil, err
	}
	var shotList shotListDoc
	if err := decode(shotListInput, &shotList); err != nil {
		return nil, err
	}

	resolved := make([]resolvedAsset, 0, len(manifest.CharacterPacks)+len(manifest.Backgrounds)+len(manifest.VOItems))
	for _, pack := range manifest.CharacterPacks {
		resolved = append(resolved, resolvedAsset{
			AssetID:       pack.PackID,
			AssetType:     "character_pack",
			URI:           "placeholder://character/" + pack.CharacterID,
			LicenseType:   "generated_local",
			IsPlaceholder: true,
		})
	}
	for _, bg := range manifest.Backgrounds {
		resolved = append(resolved, resolvedAsset{
			AssetID:       bg.BgID,
			AssetType:     "background",
			URI:           "placeholder://background/" + bg.SceneID,
			LicenseType:   "generated_local",
			IsPlaceholder: true,
		})
	}
	for _, item := range manifest.VOItems {
		resolved = append(resolved, resolvedAsset{
			AssetID:       item.ItemID,
			AssetType:     "vo",
			URI:           "placeholder://vo/" + item.ItemID,
			LicenseType:   item.LicenseType,
			IsPlaceholder: true,
		})
	}

	plan := renderPlanDoc{
		SchemaVersion:  artifact.DefaultSchemaVersion,
		PlanID:         fmt.Sprintf("plan-%s-%s", req.Project.ID, shortRun(req.RunID)),
		ProjectID:      req.Project.ID,
		ManifestRef:    manifest.ManifestID,
		TimingLockHash: shotList.TimingLockHash,
		Profile:        "preview_local",
		Resolution:     "1280x720",
		AspectRatio:    "16:9",
		FPS:            24,
		ResolvedAssets: resolved,
	}
	return artifact.DocumentOf(plan)
}
