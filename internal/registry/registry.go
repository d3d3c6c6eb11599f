package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"reelpipe/internal/artifact"
	"reelpipe/internal/canonical"
	"reelpipe/internal/logging"
	"reelpipe/internal/schema"
)

var (
	// ErrNotFound reports an absent artifact (body or sidecar missing).
	ErrNotFound = errors.New("artifact not found")
	// ErrCorrupt reports a stored artifact whose recomputed canonical
	// hash does not match its sidecar hash.
	ErrCorrupt = errors.New("artifact corrupt")
)

// Store is a filesystem-backed artifact registry rooted at a single
// directory and scoped per (project_id, run_id) namespace via Run.
type Store struct {
	root      string
	validator *schema.Validator
	logger    *slog.Logger
}

// NewStore builds a registry over root. The validator gates cache
// reuse and write acceptance.
func NewStore(root string, validator *schema.Validator, logger *slog.Logger) *Store {
	return &Store{
		root:      root,
		validator: validator,
		logger:    logging.NewComponentLogger(logger, "registry"),
	}
}

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

// Run scopes the registry to one (project_id, run_id) namespace.
func (s *Store) Run(projectID, runID string) *Run {
	return &Run{store: s, projectID: projectID, runID: runID}
}

// Run is a registry namespace for one pipeline execution.
type Run struct {
	store     *Store
	projectID string
	runID     string
}

// Dir returns the namespace directory.
func (r *Run) Dir() string {
	return filepath.Join(r.store.root, r.projectID, r.runID)
}

// BodyPath returns the artifact body file path for t.
func (r *Run) BodyPath(t artifact.Type) string {
	return filepath.Join(r.Dir(), string(t)+".json")
}

// MetaPath returns the metadata sidecar path for t.
func (r *Run) MetaPath(t artifact.Type) string {
	return filepath.Join(r.Dir(), string(t)+".meta.json")
}

// Exists reports whether both the body and sidecar for t are present.
func (r *Run) Exists(t artifact.Type) bool {
	if _, err := os.Stat(r.BodyPath(t)); err != nil {
		return false
	}
	if _, err := os.Stat(r.MetaPath(t)); err != nil {
		return false
	}
	return true
}

// Read loads the artifact body and sidecar for t. It returns
// ErrNotFound when either file is absent and ErrCorrupt when the
// recomputed canonical hash of the body differs from the sidecar hash.
func (r *Run) Read(t artifact.Type) (artifact.Document, artifact.Meta, error) {
	doc, meta, _, err := r.read(t)
	return doc, meta, err
}

func (r *Run) read(t artifact.Type) (artifact.Document, artifact.Meta, string, error) {
	body, err := os.ReadFile(r.BodyPath(t))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, artifact.Meta{}, "", fmt.Errorf("%w: %s", ErrNotFound, t)
		}
		return nil, artifact.Meta{}, "", fmt.Errorf("registry: read %s body: %w", t, err)
	}
	rawMeta, err := os.ReadFile(r.MetaPath(t))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, artifact.Meta{}, "", fmt.Errorf("%w: %s (missing sidecar)", ErrNotFound, t)
		}
		return nil, artifact.Meta{}, "", fmt.Errorf("registry: read %s sidecar: %w", t, err)
	}

	doc, err := artifact.ParseDocument(body)
	if err != nil {
		return nil, artifact.Meta{}, "", fmt.Errorf("%w: %s: body is not valid JSON: %w", ErrCorrupt, t, err)
	}
	var meta artifact.Meta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, artifact.Meta{}, "", fmt.Errorf("%w: %s: sidecar is not valid JSON: %w", ErrCorrupt, t, err)
	}

	hash, err := canonical.HashDocument(doc)
	if err != nil {
		return nil, artifact.Meta{}, "", fmt.Errorf("registry: hash %s: %w", t, err)
	}
	if !strings.EqualFold(hash, meta.Hash) {
		return nil, artifact.Meta{}, "", fmt.Errorf("%w: %s: stored hash %s, recomputed %s", ErrCorrupt, t, short(meta.Hash), short(hash))
	}
	return doc, meta, hash, nil
}

// Write persists the artifact body and sidecar atomically, overwriting
// any prior artifact of that type for this run. The document must pass
// schema validation for its declared version, and meta.Hash (when set)
// must match the canonical hash of the body.
func (r *Run) Write(t artifact.Type, doc artifact.Document, meta artifact.Meta) error {
	if !t.Known() {
		return fmt.Errorf("registry: unknown artifact type %q", t)
	}
	if err := r.store.validator.Validate(t, meta.SchemaVersion, doc); err != nil {
		return fmt.Errorf("registry: write %s: %w", t, err)
	}

	body, err := canonical.Marshal(doc)
	if err != nil {
		return fmt.Errorf("registry: canonicalize %s: %w", t, err)
	}
	hash := canonical.Hash(body)
	if meta.Hash == "" {
		meta.Hash = hash
	} else if meta.Hash != hash {
		return fmt.Errorf("registry: write %s: meta hash %s does not match body hash %s", t, short(meta.Hash), short(hash))
	}

	rawMeta, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal %s sidecar: %w", t, err)
	}

	if err := os.MkdirAll(r.Dir(), 0o755); err != nil {
		return fmt.Errorf("registry: create run directory: %w", err)
	}

	// Body lands before the sidecar: a crash between the two renames
	// leaves a body/sidecar hash mismatch, which the validity gate
	// treats as a cache miss rather than a trusted artifact.
	if err := writeAtomic(r.BodyPath(t), body); err != nil {
		return fmt.Errorf("registry: write %s body: %w", t, err)
	}
	if err := writeAtomic(r.MetaPath(t), append(rawMeta, '\n')); err != nil {
		return fmt.Errorf("registry: write %s sidecar: %w", t, err)
	}

	r.store.logger.Debug("artifact written",
		logging.String("artifact_type", string(t)),
		logging.String("run_id", r.runID),
		logging.String("hash", short(hash)),
	)
	return nil
}

// Reason classifies why an artifact is or is not valid for skip.
type Reason string

const (
	ReasonValid         Reason = "valid"
	ReasonMissing       Reason = "missing"
	ReasonHashMismatch  Reason = "hash_mismatch"
	ReasonSchemaInvalid Reason = "schema_invalid"
)

// Validity is the outcome of the three-part cache-reuse gate.
type Validity struct {
	OK     bool
	Reason Reason
	Detail string
}

// Validity evaluates whether the stored artifact of type t may be
// reused: it must exist, its sidecar hash must match the recomputed
// canonical hash, and it must pass schema validation. Each failure is a
// cache miss, never fatal; only an unregistered schema version
// propagates as an error.
func (r *Run) Validity(t artifact.Type) (Validity, error) {
	doc, meta, _, err := r.read(t)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return Validity{Reason: ReasonMissing, Detail: err.Error()}, nil
	case errors.Is(err, ErrCorrupt):
		// Distinguishable from a normal miss: something on disk rotted.
		r.store.logger.Warn("artifact failed integrity check",
			logging.String(logging.FieldEventType, "artifact_corrupt"),
			logging.String("artifact_type", string(t)),
			logging.String("run_id", r.runID),
			logging.Error(err),
		)
		return Validity{Reason: ReasonHashMismatch, Detail: err.Error()}, nil
	default:
		return Validity{Reason: ReasonMissing, Detail: err.Error()}, nil
	}

	if err := r.store.validator.Validate(t, meta.SchemaVersion, doc); err != nil {
		if errors.Is(err, schema.ErrSchemaNotFound) {
			return Validity{}, err
		}
		return Validity{Reason: ReasonSchemaInvalid, Detail: err.Error()}, nil
	}
	return Validity{OK: true, Reason: ReasonValid}, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString()[:8])
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
