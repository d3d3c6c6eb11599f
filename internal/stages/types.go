package stages

// Typed views of the artifact documents the stages exchange. Only the
// fields the stage rules consume are modeled; everything else rides
// along in the generic document.

type scriptDoc struct {
	SchemaVersion string      `json:"schema_version"`
	ScriptID      string      `json:"script_id"`
	ProjectID     string      `json:"project_id"`
	Title         string      `json:"title"`
	Genre         string      `json:"genre"`
	Scenes        []sceneDoc  `json:"scenes"`
}

type sceneDoc struct {
	SceneID   string      `json:"scene_id"`
	Location  string      `json:"location"`
	TimeOfDay string      `json:"time_of_day"`
	Actions   []actionDoc `json:"actions"`
}

type actionDoc struct {
	Type      string `json:"type"`
	Character string `json:"character,omitempty"`
	Text      string `json:"text"`
}

type audioIntent struct {
	VOSpeakerID *string  `json:"vo_speaker_id"`
	VOText      *string  `json:"vo_text"`
	SFXTags     []string `json:"sfx_tags"`
	MusicMood   *string  `json:"music_mood"`
}

type shotCharacter struct {
	CharacterID string  `json:"character_id"`
	Expression  *string `json:"expression"`
	Pose        *string `json:"pose"`
}

type shotDoc struct {
	ShotID         string          `json:"shot_id"`
	SceneID        string          `json:"scene_id"`
	DurationSec    float64         `json:"duration_sec"`
	CameraFraming  string          `json:"camera_framing"`
	CameraMovement string          `json:"camera_movement"`
	AudioIntent    audioIntent     `json:"audio_intent"`
	Characters     []shotCharacter `json:"characters"`
}

type shotListDoc struct {
	SchemaVersion    string    `json:"schema_version"`
	ShotListID       string    `json:"shotlist_id"`
	ScriptID         string    `json:"script_id"`
	CreatedAt        string    `json:"created_at"`
	TimingLockHash   string    `json:"timing_lock_hash"`
	TotalDurationSec float64   `json:"total_duration_sec"`
	Shots            []shotDoc `json:"shots"`
}

type characterPack struct {
	PackID        string `json:"pack_id"`
	CharacterID   string `json:"character_id"`
	DisplayName   string `json:"display_name"`
	IsPlaceholder bool   `json:"is_placeholder"`
}

type background struct {
	BgID          string `json:"bg_id"`
	SceneID       string `json:"scene_id"`
	Description   string `json:"description"`
	IsPlaceholder bool   `json:"is_placeholder"`
}

type voItem struct {
	ItemID      string `json:"item_id"`
	SpeakerID   string `json:"speaker_id"`
	Text        string `json:"text"`
	LicenseType string `json:"license_type"`
}

type assetManifestDoc struct {
	SchemaVersion  string          `json:"schema_version"`
	ManifestID     string          `json:"manifest_id"`
	ProjectID      string          `json:"project_id"`
	ShotListRef    string          `json:"shotlist_ref"`
	CharacterPacks []characterPack `json:"character_packs"`
	Backgrounds    []background    `json:"backgrounds"`
	VOItems        []voItem        `json:"vo_items"`
}

type resolvedAsset struct {
	AssetID       string `json:"asset_id"`
	AssetType     string `json:"asset_type"`
	URI           string `json:"uri"`
	LicenseType   string `json:"license_type"`
	IsPlaceholder bool   `json:"is_placeholder"`
}

type renderPlanDoc struct {
	SchemaVersion  string          `json:"schema_version"`
	PlanID         string          `json:"plan_id"`
	ProjectID      string          `json:"project_id"`
	ManifestRef    string          `json:"manifest_ref"`
	TimingLockHash string          `json:"timing_lock_hash"`
	Profile        string          `json:"profile"`
	Resolution     string          `json:"resolution"`
	AspectRatio    string          `json:"aspect_ratio"`
	FPS            int             `json:"fps"`
	ResolvedAssets []resolvedAsset `json:"resolved_assets"`
}

type renderOutputDoc struct {
	SchemaVersion string  `json:"schema_version"`
	OutputID      string  `json:"output_id"`
	ProjectID     string  `json:"project_id"`
	PlanRef       string  `json:"plan_ref"`
	VideoPath     string  `json:"video_path"`
	CaptionsPath  string  `json:"captions_path"`
	ContentHash   string  `json:"content_hash"`
	DurationSec   float64 `json:"duration_sec"`
}
