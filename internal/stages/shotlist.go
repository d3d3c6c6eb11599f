package stages

import (
	"context"
	"fmt"
	"strings"

	"reelpipe/internal/artifact"
	"reelpipe/internal/canonical"
	"reelpipe/internal/pipeline"
)

// minShotDurationSec floors each scene's shot duration.
const minShotDurationSec = 3.0

// secondsPerDialogueWord converts a scene's dialogue word count into
// shot duration.
const secondsPerDialogueWord = 0.4

// ScriptToShotList derives the ShotList from the Script: two shots per
// scene (wide + medium close-up), duration from the scene's dialogue
// word count, static camera throughout.
type ScriptToShotList struct{}

func (ScriptToShotList) Run(_ context.Context, req pipeline.Request) (artifact.Document, error) {
	input, err := requireInput(req, artifact.TypeScript)
	if err != nil {
		return nil, err
	}
	var script scriptDoc
	if err := decode(input, &script); err != nil {
		return nil, err
	}

	var shots []shotDoc
	for _, scene := range script.Scenes {
		wordCount := 0
		var firstDialogue *actionDoc
		for i, action := range scene.Actions {
			if action.Type != "dialogue" {
				continue
			}
			wordCount += len(strings.Fields(action.Text))
			if firstDialogue == nil {
				firstDialogue = &scene.Actions[i]
			}
		}
		duration := float64(wordCount) * secondsPerDialogueWord
		if duration < minShotDurationSec {
			duration = minShotDurationSec
		}

		intent := audioIntent{SFXTags: []string{}}
		var characters []shotCharacter
		if firstDialogue != nil {
			speaker := speakerID(firstDialogue.Character)
			text := firstDialogue.Text
			intent.VOSpeakerID = &speaker
			intent.VOText = &text
			characters = []shotCharacter{{CharacterID: speaker}}
		} else {
			characters = []shotCharacter{}
		}

		for i, framing := range []string{"wide", "medium_close_up"} {
			shots = append(shots, shotDoc{
				ShotID:         fmt.Sprintf("%s-shot-%03d", scene.SceneID, i+1),
				SceneID:        scene.SceneID,
				DurationSec:    duration,
				CameraFraming:  framing,
				CameraMovement: "STATIC",
				AudioIntent:    intent,
				Characters:     characters,
			})
		}
	}

	timingLock, err := timingLockHash(shots)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, shot := range shots {
		total += shot.DurationSec
	}

	shotList := shotListDoc{
		SchemaVersion:    artifact.DefaultSchemaVersion,
		ShotListID:       fmt.Sprintf("shotlist-%s-%s", req.Project.ID, shortRun(req.RunID)),
		ScriptID:         script.ScriptID,
		CreatedAt:        "1970-01-01T00:00:00Z",
		TimingLockHash:   timingLock,
		TotalDurationSec: total,
		Shots:            shots,
	}
	return artifact.DocumentOf(shotList)
}

// timingLockHash fingerprints the shot timing so downstream plans can
// prove they were built against this exact cut.
func timingLockHash(shots []shotDoc) (string, error) {
	timing := make([]any, 0, len(shots))
	for _, shot := range shots {
		timing = append(timing, map[string]any{
			"shot_id":      shot.ShotID,
			"duration_sec": shot.DurationSec,
		})
	}
	return canonical.HashDocument(map[string]any{"shots": timing})
}
