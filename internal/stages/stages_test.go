package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"

	"reelpipe/internal/artifact"
	"reelpipe/internal/canonical"
	"reelpipe/internal/pipeline"
	"reelpipe/internal/project"
)

const testRunID = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func testRequest(t *testing.T, inputs map[artifact.Type]artifact.Document) pipeline.Request {
	t.Helper()
	cfg, err := project.Parse([]byte(`{"id": "demo", "title": "Demo Episode", "genre": "thriller"}`), "demo.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return pipeline.Request{Project: cfg, RunID: testRunID, Inputs: inputs}
}

func runStage(t *testing.T, fn pipeline.Func, inputs map[artifact.Type]artifact.Document) artifact.Document {
	t.Helper()
	doc, err := fn.Run(context.Background(), testRequest(t, inputs))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	return doc
}

// runChain executes stages 1..n and returns every produced document.
func runChain(t *testing.T, n int) map[artifact.Type]artifact.Document {
	t.Helper()
	funcs := All()
	produced := map[artifact.Type]artifact.Document{}
	for _, desc := range pipeline.Descriptors()[:n] {
		inputs := map[artifact.Type]artifact.Document{}
		for _, read := range desc.Reads {
			inputs[read] = produced[read]
		}
		produced[desc.Writes] = runStage(t, funcs[desc.Writes], inputs)
	}
	return produced
}

func decodeInto(t *testing.T, doc artifact.Document, v any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}

func TestGenerateScriptShape(t *testing.T) {
	doc := runChain(t, 1)[artifact.TypeScript]

	var script scriptDoc
	decodeInto(t, doc, &script)

	if script.ScriptID != "script-demo-01234567" {
		t.Fatalf("script_id = %s", script.ScriptID)
	}
	if script.ProjectID != "demo" || script.Title != "Demo Episode" || script.Genre != "thriller" {
		t.Fatalf("header fields: %+v", script)
	}
	if len(script.Scenes) != 2 {
		t.Fatalf("scene count = %d", len(script.Scenes))
	}
	for _, scene := range script.Scenes {
		if len(scene.Actions) == 0 {
			t.Errorf("scene %s has no actions", scene.SceneID)
		}
	}
}

func TestGenerateScriptDefaultsGenre(t *testing.T) {
	cfg, err := project.Parse([]byte(`{"id": "bare"}`), "bare.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc, err := GenerateScript{}.Run(context.Background(), pipeline.Request{Project: cfg, RunID: testRunID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc["genre"] != "drama" {
		t.Fatalf("genre = %v, want drama", doc["genre"])
	}
}

func TestScriptToShotListTwoShotsPerScene(t *testing.T) {
	produced := runChain(t, 2)

	var script scriptDoc
	decodeInto(t, produced[artifact.TypeScript], &script)
	var shotList shotListDoc
	decodeInto(t, produced[artifact.TypeShotList], &shotList)

	if len(shotList.Shots) != 2*len(script.Scenes) {
		t.Fatalf("shot count = %d, want %d", len(shotList.Shots), 2*len(script.Scenes))
	}
	if shotList.ScriptID != script.ScriptID {
		t.Fatalf("script ref = %s, want %s", shotList.ScriptID, script.ScriptID)
	}
	if shotList.CreatedAt != "1970-01-01T00:00:00Z" {
		t.Fatalf("created_at = %s, want epoch", shotList.CreatedAt)
	}

	for i, shot := range shotList.Shots {
		wantFraming := "wide"
		if i%2 == 1 {
			wantFraming = "medium_close_up"
		}
		if shot.CameraFraming != wantFraming {
			t.Errorf("shot %s framing = %s, want %s", shot.ShotID, shot.CameraFraming, wantFraming)
		}
		if shot.CameraMovement != "STATIC" {
			t.Errorf("shot %s movement = %s", shot.ShotID, shot.CameraMovement)
		}
		if shot.DurationSec < minShotDurationSec {
			t.Errorf("shot %s duration %.2f below floor", shot.ShotID, shot.DurationSec)
		}
	}
}

func TestScriptToShotListDurationFromDialogue(t *testing.T) {
	script := artifact.Document{
		"schema_version": "1.0.0",
		"script_id":      "script-x",
		"project_id":     "demo",
		"title":          "X",
		"scenes": []any{
			map[string]any{
				"scene_id": "scene-001",
				"actions": []any{
					// 20 dialogue words: 20 * 0.4 = 8.0 seconds.
					map[string]any{"type": "dialogue", "character": "A", "text": "one two three four five six seven eight nine ten"},
					map[string]any{"type": "dialogue", "character": "B", "text": "one two three four five six seven eight nine ten"},
				},
			},
			map[string]any{
				"scene_id": "scene-002",
				"actions": []any{
					map[string]any{"type": "action", "text": "Silence."},
				},
			},
		},
	}

	doc := runStage(t, ScriptToShotList{}, map[artifact.Type]artifact.Document{artifact.TypeScript: script})
	var shotList shotListDoc
	decodeInto(t, doc, &shotList)

	if len(shotList.Shots) != 4 {
		t.Fatalf("shot count = %d", len(shotList.Shots))
	}
	if shotList.Shots[0].DurationSec != 8.0 {
		t.Fatalf("dialogue scene duration = %.2f, want 8.0", shotList.Shots[0].DurationSec)
	}
	// No dialogue: duration floors and no voice-over intent.
	silent := shotList.Shots[2]
	if silent.DurationSec != minShotDurationSec {
		t.Fatalf("silent scene duration = %.2f, want %.1f", silent.DurationSec, minShotDurationSec)
	}
	if silent.AudioIntent.VOSpeakerID != nil || silent.AudioIntent.VOText != nil {
		t.Fatal("silent scene carries a voice-over intent")
	}
	if len(silent.Characters) != 0 {
		t.Fatalf("silent scene characters = %v", silent.Characters)
	}

	// First speaker of the scene drives the intent.
	spoken := shotList.Shots[0]
	if spoken.AudioIntent.VOSpeakerID == nil || *spoken.AudioIntent.VOSpeakerID != "a" {
		t.Fatalf("vo speaker = %v, want a", spoken.AudioIntent.VOSpeakerID)
	}

	wantTotal := 8.0*2 + minShotDurationSec*2
	if shotList.TotalDurationSec != wantTotal {
		t.Fatalf("total duration = %.2f, want %.2f", shotList.TotalDurationSec, wantTotal)
	}
}

func TestTimingLockHashCoversShotTimingOnly(t *testing.T) {
	shots := []shotDoc{
		{ShotID: "scene-001-shot-001", SceneID: "scene-001", DurationSec: 3.0, CameraFraming: "wide"},
	}
	first, err := timingLockHash(shots)
	if err != nil {
		t.Fatalf("timingLockHash: %v", err)
	}

	// Framing changes do not move the lock.
	shots[0].CameraFraming = "close_up"
	second, err := timingLockHash(shots)
	if err != nil {
		t.Fatalf("timingLockHash: %v", err)
	}
	if first != second {
		t.Fatal("timing lock moved on a non-timing change")
	}

	// Duration changes do.
	shots[0].DurationSec = 4.0
	third, err := timingLockHash(shots)
	if err != nil {
		t.Fatalf("timingLockHash: %v", err)
	}
	if third == first {
		t.Fatal("timing lock ignored a duration change")
	}
}

func TestShotListToAssetManifest(t *testing.T) {
	produced := runChain(t, 3)

	var script scriptDoc
	decodeInto(t, produced[artifact.TypeScript], &script)
	var shotList shotListDoc
	decodeInto(t, produced[artifact.TypeShotList], &shotList)
	var manifest assetManifestDoc
	decodeInto(t, produced[artifact.TypeAssetManifest], &manifest)

	// One pack per distinct dialogue character, sorted by name.
	seen := map[string]bool{}
	var wantCharacters []string
	dialogueActions := 0
	for _, scene := range script.Scenes {
		for _, action := range scene.Actions {
			if action.Type != "dialogue" {
				continue
			}
			dialogueActions++
			if !seen[action.Character] {
				seen[action.Character] = true
				wantCharacters = append(wantCharacters, action.Character)
			}
		}
	}
	sort.Strings(wantCharacters)
	if len(manifest.CharacterPacks) != len(wantCharacters) {
		t.Fatalf("pack count = %d, want %d", len(manifest.CharacterPacks), len(wantCharacters))
	}
	for i, pack := range manifest.CharacterPacks {
		if pack.DisplayName != wantCharacters[i] {
			t.Errorf("pack %d display name = %s, want %s", i, pack.DisplayName, wantCharacters[i])
		}
		if pack.PackID != "char-"+pack.CharacterID {
			t.Errorf("pack id = %s", pack.PackID)
		}
		if !pack.IsPlaceholder {
			t.Errorf("pack %s not a placeholder", pack.PackID)
		}
	}

	// One background per scene, in first-seen shot order, described by
	// the scene's location.
	locations := map[string]string{}
	for _, scene := range script.Scenes {
		locations[scene.SceneID] = scene.Location
	}
	seenScene := map[string]bool{}
	var wantScenes []string
	for _, shot := range shotList.Shots {
		if !seenScene[shot.SceneID] {
			seenScene[shot.SceneID] = true
			wantScenes = append(wantScenes, shot.SceneID)
		}
	}
	if len(manifest.Backgrounds) != len(wantScenes) {
		t.Fatalf("background count = %d, want %d", len(manifest.Backgrounds), len(wantScenes))
	}
	for i, bg := range manifest.Backgrounds {
		if bg.SceneID != wantScenes[i] {
			t.Errorf("background %d scene = %s, want %s", i, bg.SceneID, wantScenes[i])
		}
		if bg.Description != locations[bg.SceneID] {
			t.Errorf("background %s description = %s, want %s", bg.BgID, bg.Description, locations[bg.SceneID])
		}
	}

	// One voice-over item per dialogue action, zero-indexed in script
	// order.
	if len(manifest.VOItems) != dialogueActions {
		t.Fatalf("vo count = %d, want %d", len(manifest.VOItems), dialogueActions)
	}
	for i, item := range manifest.VOItems {
		if item.LicenseType != "generated_local" {
			t.Errorf("vo %s license = %s", item.ItemID, item.LicenseType)
		}
		wantSuffix := fmt.Sprintf("-%03d", i)
		if !strings.HasSuffix(item.ItemID, wantSuffix) {
			t.Errorf("vo item id = %s, want suffix %s", item.ItemID, wantSuffix)
		}
	}
	if manifest.ShotListRef != shotList.ShotListID {
		t.Fatalf("shotlist ref = %s", manifest.ShotListRef)
	}
}

func TestBuildRenderPlan(t *testing.T) {
	produced := runChain(t, 4)

	var manifest assetManifestDoc
	decodeInto(t, produced[artifact.TypeAssetManifest], &manifest)
	var shotList shotListDoc
	decodeInto(t, produced[artifact.TypeShotList], &shotList)
	var plan renderPlanDoc
	decodeInto(t, produced[artifact.TypeRenderPlan], &plan)

	if plan.Profile != "preview_local" || plan.Resolution != "1280x720" || plan.AspectRatio != "16:9" || plan.FPS != 24 {
		t.Fatalf("profile fields: %+v", plan)
	}
	if plan.TimingLockHash != shotList.TimingLockHash {
		t.Fatal("plan does not carry the shot list timing lock")
	}
	if plan.ManifestRef != manifest.ManifestID {
		t.Fatalf("manifest ref = %s", plan.ManifestRef)
	}

	wantAssets := len(manifest.CharacterPacks) + len(manifest.Backgrounds) + len(manifest.VOItems)
	if len(plan.ResolvedAssets) != wantAssets {
		t.Fatalf("resolved assets = %d, want %d", len(plan.ResolvedAssets), wantAssets)
	}
	// Manifest order: character packs, then backgrounds, then vo items.
	idx := 0
	for _, pack := range manifest.CharacterPacks {
		asset := plan.ResolvedAssets[idx]
		if asset.AssetID != pack.PackID || asset.AssetType != "character_pack" {
			t.Fatalf("asset %d = %+v, want pack %s", idx, asset, pack.PackID)
		}
		if asset.URI != "placeholder://character/"+pack.CharacterID {
			t.Fatalf("asset %d uri = %s", idx, asset.URI)
		}
		idx++
	}
	for _, bg := range manifest.Backgrounds {
		if plan.ResolvedAssets[idx].AssetID != bg.BgID {
			t.Fatalf("asset %d = %+v, want background %s", idx, plan.ResolvedAssets[idx], bg.BgID)
		}
		idx++
	}
	for _, item := range manifest.VOItems {
		asset := plan.ResolvedAssets[idx]
		if asset.AssetID != item.ItemID || asset.LicenseType != item.LicenseType {
			t.Fatalf("asset %d = %+v, want vo %s", idx, asset, item.ItemID)
		}
		idx++
	}
}

func TestRenderPreview(t *testing.T) {
	produced := runChain(t, 5)

	var shotList shotListDoc
	decodeInto(t, produced[artifact.TypeShotList], &shotList)
	var plan renderPlanDoc
	decodeInto(t, produced[artifact.TypeRenderPlan], &plan)
	var output renderOutputDoc
	decodeInto(t, produced[artifact.TypeRenderOutput], &output)

	if output.PlanRef != plan.PlanID {
		t.Fatalf("plan ref = %s", output.PlanRef)
	}
	if output.VideoPath != "placeholder://video/demo-"+testRunID+".mp4" {
		t.Fatalf("video path = %s", output.VideoPath)
	}
	if output.DurationSec != shotList.TotalDurationSec {
		t.Fatalf("duration = %.2f, want %.2f", output.DurationSec, shotList.TotalDurationSec)
	}

	wantHash, err := canonical.HashDocument(map[string]any{
		"video_path":    output.VideoPath,
		"captions_path": output.CaptionsPath,
	})
	if err != nil {
		t.Fatalf("HashDocument: %v", err)
	}
	if output.ContentHash != wantHash {
		t.Fatalf("content hash = %s, want %s", output.ContentHash, wantHash)
	}
}

func TestChainIsDeterministic(t *testing.T) {
	first := runChain(t, 5)
	second := runChain(t, 5)

	for _, typ := range artifact.Types() {
		firstHash, err := canonical.HashDocument(first[typ])
		if err != nil {
			t.Fatalf("hash %s: %v", typ, err)
		}
		secondHash, err := canonical.HashDocument(second[typ])
		if err != nil {
			t.Fatalf("hash %s: %v", typ, err)
		}
		if firstHash != secondHash {
			t.Errorf("%s differs across identical chains", typ)
		}
	}
}

func TestRequireInputMissing(t *testing.T) {
	_, err := ScriptToShotList{}.Run(context.Background(), testRequest(t, nil))
	if err == nil {
		t.Fatal("expected an error for a missing input")
	}
}

func TestSpeakerID(t *testing.T) {
	if got := speakerID("FIRST MATE"); got != "first_mate" {
		t.Fatalf("speakerID = %s", got)
	}
}
