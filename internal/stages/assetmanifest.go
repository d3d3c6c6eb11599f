package stages

import (
	"context"
	"fmt"
	"sort"

	"reelpipe/internal/artifact"
	"reelpipe/internal/pipeline"
)

// ShotListToAssetManifest enumerates the assets the episode demands:
// one placeholder pack per distinct dialogue character, one background
// per scene in shot order, and one voice-over item per dialogue action.
type ShotListToAssetManifest struct{}

func (ShotListToAssetManifest) Run(_ context.Context, req pipeline.Request) (artifact.Document, error) {
	shotListInput, err := requireInput(req, artifact.TypeShotList)
	if err != nil {
		return nil, err
	}
	scriptInput, err := requireInput(req, artifact.TypeScript)
	if err != nil {
		return nil, err
	}
	var shotList shotListDoc
	if err := decode(shotListInput, &shotList); err != nil {
		return nil, err
	}
	var script scriptDoc
	if err := decode(scriptInput, &script); err != nil {
		return nil, err
	}

	sceneLocations := make(map[string]string, len(script.Scenes))
	for _, scene := range script.Scenes {
		location := scene.Location
		if location == "" {
			location = "UNKNOWN"
		}
		sceneLocations[scene.SceneID] = location
	}

	seenCharacter := map[string]bool{}
	var characterNames []string
	voItems := []voItem{}
	for _, scene := range script.Scenes {
		for _, action := range scene.Actions {
			if action.Type != "dialogue" {
				continue
			}
			character := action.Character
			if character == "" {
				character = "UNKNOWN"
			}
			if !seenCharacter[character] {
				seenCharacter[character] = true
				characterNames = append(characterNames, character)
			}
			speaker := speakerID(character)
			voItems = append(voItems, voItem{
				ItemID:      fmt.Sprintf("vo-%s-%s-%03d", scene.SceneID, speaker, len(voItems)),
				SpeakerID:   speaker,
				Text:        action.Text,
				LicenseType: "generated_local",
			})
		}
	}
	sort.Strings(characterNames)

	packs := make([]characterPack, 0, len(characterNames))
	for _, name := range characterNames {
		id := speakerID(name)
		packs = append(packs, characterPack{
			PackID:        "char-" + id,
			CharacterID:   id,
			DisplayName:   name,
			IsPlaceholder: true,
		})
	}

	backgrounds := []background{}
	seenScene := map[string]bool{}
	for _, shot := range shotList.Shots {
		if seenScene[shot.SceneID] {
			continue
		}
		seenScene[shot.SceneID] = true
		description, ok := sceneLocations[shot.SceneID]
		if !ok {
			description = "UNKNOWN"
		}
		backgrounds = append(backgrounds, background{
			BgID:          "bg-" + shot.SceneID,
			SceneID:       shot.SceneID,
			Description:   description,
			IsPlaceholder: true,
		})
	}

	manifest := assetManifestDoc{
		SchemaVersion:  artifact.DefaultSchemaVersion,
		ManifestID:     fmt.Sprintf("manifest-%s-%s", req.Project.ID, shortRun(req.RunID)),
		ProjectID:      req.Project.ID,
		ShotListRef:    shotList.ShotListID,
		CharacterPacks: packs,
		Backgrounds:    backgrounds,
		VOItems:        voItems,
	}
	return artifact.DocumentOf(manifest)
}
