package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelpipe/internal/artifact"
	"reelpipe/internal/canonical"
	"reelpipe/internal/logging"
	"reelpipe/internal/project"
	"reelpipe/internal/registry"
)

// ErrMissingDependency reports that a stage's required input artifact
// was absent when execution was attempted. Fatal: the run halts before
// the stage writes anything.
var ErrMissingDependency = errors.New("missing stage dependency")

// computeOriginPrefix identifies this engine in provenance records.
const computeOriginPrefix = "reelpipe/"

// Engine runs the five stages in order against one registry store.
type Engine struct {
	store  *registry.Store
	funcs  map[artifact.Type]Func
	logger *slog.Logger
}

// New builds an engine. funcs must supply an implementation for every
// stage's write artifact type.
func New(store *registry.Store, funcs map[artifact.Type]Func, logger *slog.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("pipeline: registry store is required")
	}
	for _, desc := range Descriptors() {
		if funcs[desc.Writes] == nil {
			return nil, fmt.Errorf("pipeline: no stage function for %s (stage %d)", desc.Writes, desc.Index)
		}
	}
	return &Engine{
		store:  store,
		funcs:  funcs,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// ComputeRunID derives the default run identity: the lowercase hex
// SHA-256 of the canonical project configuration. Identical configs
// (ignoring key order and whitespace) always map to the same run.
func ComputeRunID(cfg project.Config) (string, error) {
	hash, err := canonical.HashDocument(cfg.Doc)
	if err != nil {
		return "", fmt.Errorf("pipeline: derive run id: %w", err)
	}
	return hash, nil
}

// Run executes the pipeline for cfg. The returned summary always
// reflects the true final per-stage state; the error is the fatal
// failure that halted the run, or nil when all stages reached skipped
// or completed.
func (e *Engine) Run(ctx context.Context, cfg project.Config, opts RunOptions) (Summary, error) {
	if opts.FromStage < 0 || opts.FromStage > StageCount {
		return Summary{}, fmt.Errorf("pipeline: from_stage %d out of range 1-%d", opts.FromStage, StageCount)
	}

	runID := opts.RunID
	if runID == "" {
		derived, err := ComputeRunID(cfg)
		if err != nil {
			return Summary{}, err
		}
		runID = derived
	}

	ns := e.store.Run(cfg.ID, runID)
	release, err := ns.Lock()
	if err != nil {
		return Summary{}, err
	}
	defer release()

	summary := Summary{
		RunID:       runID,
		ProjectID:   cfg.ID,
		ProjectPath: cfg.Path,
		StartedAt:   time.Now().UTC(),
		Status:      RunCompleted,
		Errors:      []string{},
	}

	var fatal error
	for _, desc := range Descriptors() {
		result, err := e.runStage(ctx, ns, cfg, runID, desc, opts)
		summary.Stages = append(summary.Stages, result)
		if err != nil {
			fatal = err
			summary.Status = RunFailed
			summary.Errors = append(summary.Errors, err.Error())
			break // downstream stages are not attempted
		}
	}
	summary.CompletedAt = time.Now().UTC()

	if err := ns.WriteSummary(summary); err != nil {
		e.logger.Error("failed to persist run summary", logging.Error(err))
		if fatal == nil {
			fatal = err
		}
	}
	return summary, fatal
}

func (e *Engine) runStage(ctx context.Context, ns *registry.Run, cfg project.Config, runID string, desc Descriptor, opts RunOptions) (StageResult, error) {
	result := StageResult{
		Stage:        desc.Index,
		Name:         desc.Name,
		ArtifactType: desc.Writes,
	}

	decision, validity, err := Decide(desc, opts, ns.Validity)
	if err != nil {
		// Unregistered schema version: configuration mismatch, fatal.
		result.Status = StageFailed
		result.Error = err.Error()
		return result, err
	}
	result.Decision = decision.String()

	if decision == DecisionSkip {
		result.Status = StageSkipped
		e.logger.Info("stage skipped",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.Int("stage", desc.Index),
			logging.String("stage_name", desc.Name),
			logging.String("run_id", runID),
		)
		return result, nil
	}
	if decision == DecisionExecuteOnMiss {
		result.Decision = fmt.Sprintf("%s:%s", decision, validity.Reason)
	}

	e.logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("stage", desc.Index),
		logging.String("stage_name", desc.Name),
		logging.String("run_id", runID),
		logging.String("decision", result.Decision),
	)
	start := time.Now()

	// Inputs are re-validated on read: a skipped upstream artifact is
	// not trusted just because the decision check passed earlier.
	inputs := make(map[artifact.Type]artifact.Document, len(desc.Reads))
	parents := make([]artifact.ParentRef, 0, len(desc.Reads))
	for _, inputType := range desc.Reads {
		doc, meta, err := ns.Read(inputType)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				err = fmt.Errorf("%w: stage %d (%s) requires %s: %w", ErrMissingDependency, desc.Index, desc.Name, inputType, err)
			}
			return e.failStage(result, start, err), err
		}
		inputs[inputType] = doc
		parents = append(parents, artifact.ParentRef{Type: inputType, Hash: meta.Hash})
	}

	output, err := e.funcs[desc.Writes].Run(ctx, Request{Project: cfg, RunID: runID, Inputs: inputs})
	if err != nil {
		err = fmt.Errorf("stage %d (%s): %w", desc.Index, desc.Name, err)
		return e.failStage(result, start, err), err
	}

	hash, err := canonical.HashDocument(output)
	if err != nil {
		return e.failStage(result, start, err), err
	}
	meta := artifact.Meta{
		Hash:          hash,
		SchemaVersion: output.SchemaVersion(),
		Parents:       parents,
		ComputeOrigin: computeOriginPrefix + desc.Name,
		CreatedAt:     time.Now().UTC(),
	}
	if err := ns.Write(desc.Writes, output, meta); err != nil {
		return e.failStage(result, start, err), err
	}

	result.Status = StageCompleted
	result.DurationSec = time.Since(start).Seconds()
	result.ArtifactHash = hash
	e.logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("stage", desc.Index),
		logging.String("stage_name", desc.Name),
		logging.String("run_id", runID),
		logging.String("artifact_hash", hash[:12]),
		logging.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (e *Engine) failStage(result StageResult, start time.Time, err error) StageResult {
	result.Status = StageFailed
	result.DurationSec = time.Since(start).Seconds()
	result.Error = err.Error()
	e.logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Int("stage", result.Stage),
		logging.String("stage_name", result.Name),
		logging.Error(err),
	)
	return result
}
