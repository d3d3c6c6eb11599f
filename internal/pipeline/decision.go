package pipeline

import (
	"reelpipe/internal/artifact"
	"reelpipe/internal/registry"
)

// RunOptions are the caller-supplied knobs for one pipeline invocation.
type RunOptions struct {
	// RunID overrides the config-derived run identity when non-empty.
	RunID string
	// Force re-executes every stage regardless of cached validity.
	Force bool
	// FromStage forces stages at or after the given index (1-5).
	// Stages strictly before it are skipped outright; a missing or
	// invalid upstream artifact is then caught when a forced stage
	// reads its inputs. Zero means unset.
	FromStage int
}

// Decision is the per-stage outcome of the skip/force/rerun logic.
type Decision int

const (
	// DecisionSkip reuses the existing valid artifact.
	DecisionSkip Decision = iota
	// DecisionExecuteForced runs the stage without consulting validity.
	DecisionExecuteForced
	// DecisionExecuteOnMiss runs the stage because the cached artifact
	// is missing, corrupt, or schema-invalid.
	DecisionExecuteOnMiss
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionExecuteForced:
		return "forced"
	case DecisionExecuteOnMiss:
		return "cache_miss"
	}
	return "unknown"
}

// Decide evaluates the three-way stage decision. The validity probe is
// only consulted when the stage is not forced, keeping the composable
// cache gate (existence, hash match, schema validity) in one place.
func Decide(desc Descriptor, opts RunOptions, validity func(artifact.Type) (registry.Validity, error)) (Decision, registry.Validity, error) {
	if opts.Force || (opts.FromStage > 0 && desc.Index >= opts.FromStage) {
		return DecisionExecuteForced, registry.Validity{}, nil
	}
	if opts.FromStage > 0 {
		// Before the requested stage nothing is recomputed, even on a
		// cache miss. The forced stages re-validate on read instead.
		return DecisionSkip, registry.Validity{}, nil
	}
	v, err := validity(desc.Writes)
	if err != nil {
		return DecisionExecuteOnMiss, registry.Validity{}, err
	}
	if v.OK {
		return DecisionSkip, v, nil
	}
	return DecisionExecuteOnMiss, v, nil
}
