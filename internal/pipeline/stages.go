package pipeline

import (
	"context"

	"reelpipe/internal/artifact"
	"reelpipe/internal/project"
)

// StageCount is the number of pipeline stages.
const StageCount = 5

// Descriptor is the static description of one stage: its position, its
// ordered read-set, and the single artifact type it writes. The five
// descriptors form a fixed DAG.
type Descriptor struct {
	Index  int
	Name   string
	Reads  []artifact.Type
	Writes artifact.Type
}

// Descriptors returns the five stage descriptors in execution order.
func Descriptors() []Descriptor {
	return []Descriptor{
		{Index: 1, Name: "generate_script", Reads: nil, Writes: artifact.TypeScript},
		{Index: 2, Name: "script_to_shotlist", Reads: []artifact.Type{artifact.TypeScript}, Writes: artifact.TypeShotList},
		{Index: 3, Name: "shotlist_to_assetmanifest", Reads: []artifact.Type{artifact.TypeShotList, artifact.TypeScript}, Writes: artifact.TypeAssetManifest},
		{Index: 4, Name: "build_renderplan", Reads: []artifact.Type{artifact.TypeAssetManifest, artifact.TypeShotList}, Writes: artifact.TypeRenderPlan},
		{Index: 5, Name: "render_preview", Reads: []artifact.Type{artifact.TypeRenderPlan, artifact.TypeShotList}, Writes: artifact.TypeRenderOutput},
	}
}

// Request carries everything a stage function may consume: the project
// configuration, the run identity, and the input artifacts named by the
// stage's read-set.
type Request struct {
	Project project.Config
	RunID   string
	Inputs  map[artifact.Type]artifact.Document
}

// Func is the uniform contract every stage function implements: a pure
// mapping from input artifacts to one output artifact body. Given
// byte-identical inputs a Func must produce byte-identical output.
type Func interface {
	Run(ctx context.Context, req Request) (artifact.Document, error)
}
