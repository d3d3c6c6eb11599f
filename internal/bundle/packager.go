package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelpipe/internal/artifact"
	"reelpipe/internal/canonical"
	"reelpipe/internal/logging"
	"reelpipe/internal/registry"
)

// Mode selects how files are transferred into the bundle.
type Mode string

const (
	// ModeCopy duplicates every file. Safe default.
	ModeCopy Mode = "copy"
	// ModeHardlink links files where possible and falls back to copy.
	// Source artifacts must stay immutable afterwards or the bundle's
	// checksums go stale.
	ModeHardlink Mode = "hardlink"
)

// ManifestFileName is the bundle manifest written at the bundle root.
const ManifestFileName = "EpisodeBundle.json"

const manifestSchemaVersion = "1.0.0"

// ErrMissingArtifact reports a run that is not complete enough to
// package.
var ErrMissingArtifact = errors.New("bundle: missing required artifact")

// Options configures one packaging operation.
type Options struct {
	EpisodeID string
	OutDir    string
	Mode      Mode
}

// Entry is one file recorded in the bundle manifest.
type Entry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Packager assembles bundles from completed registry runs.
type Packager struct {
	logger *slog.Logger
}

// NewPackager returns a Packager logging through logger.
func NewPackager(logger *slog.Logger) *Packager {
	return &Packager{logger: logging.NewComponentLogger(logger, "bundle")}
}

// Package assembles the run into <opts.OutDir>/<opts.EpisodeID>/ and
// returns the bundle root. Every pipeline artifact body and sidecar
// plus the run summary must be present.
func (p *Packager) Package(run *registry.Run, opts Options) (string, error) {
	if opts.EpisodeID == "" {
		return "", errors.New("bundle: episode id is required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeCopy
	}
	if mode != ModeCopy && mode != ModeHardlink {
		return "", fmt.Errorf("bundle: unknown transfer mode %q", mode)
	}

	for _, t := range artifact.Types() {
		if !run.Exists(t) {
			return "", fmt.Errorf("%w: %s", ErrMissingArtifact, t)
		}
	}
	if _, err := os.Stat(run.SummaryPath()); err != nil {
		return "", fmt.Errorf("%w: run summary", ErrMissingArtifact)
	}

	bundleRoot := filepath.Join(opts.OutDir, opts.EpisodeID)
	artifactsDir := filepath.Join(bundleRoot, "artifacts")
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return "", fmt.Errorf("bundle: create bundle directory: %w", err)
	}

	entries := map[string]Entry{}
	record := func(key, src, destRel string) error {
		dst := filepath.Join(bundleRoot, filepath.FromSlash(destRel))
		if err := transfer(src, dst, mode); err != nil {
			return fmt.Errorf("bundle: transfer %s: %w", key, err)
		}
		sum, err := hashFile(dst)
		if err != nil {
			return fmt.Errorf("bundle: hash %s: %w", key, err)
		}
		entries[key] = Entry{Path: destRel, SHA256: sum}
		return nil
	}

	for _, t := range artifact.Types() {
		name := string(t)
		if err := record(name, run.BodyPath(t), "artifacts/"+name+".json"); err != nil {
			return "", err
		}
		if err := record(name+"Meta", run.MetaPath(t), "artifacts/"+name+".meta.json"); err != nil {
			return "", err
		}
	}
	if err := record("RunSummary", run.SummaryPath(), "artifacts/run_summary.json"); err != nil {
		return "", err
	}

	runDir := run.Dir()
	runID := filepath.Base(runDir)
	projectID := filepath.Base(filepath.Dir(runDir))

	manifest := map[string]any{
		"schema_id":      "EpisodeBundle",
		"schema_version": manifestSchemaVersion,
		"episode_id":     opts.EpisodeID,
		"source_run_dir": projectID + "/" + runID,
		"run_id":         runID,
		"created_utc":    nowUTC(),
		"artifacts":      entryMapDocument(entries),
	}
	hash, err := manifestHash(manifest)
	if err != nil {
		return "", err
	}
	manifest["bundle_hash"] = hash

	raw, err := canonical.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("bundle: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(bundleRoot, ManifestFileName), append(raw, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("bundle: write manifest: %w", err)
	}

	p.logger.Info("bundle packaged",
		logging.String(logging.FieldEventType, "bundle_packaged"),
		logging.String("episode_id", opts.EpisodeID),
		logging.String("run_id", runID),
		logging.String("bundle_hash", hash[:12]),
		logging.Int("files", len(entries)),
	)
	return bundleRoot, nil
}

// manifestHash fingerprints the manifest minus its volatile fields.
func manifestHash(manifest map[string]any) (string, error) {
	stable := make(map[string]any, len(manifest))
	for k, v := range manifest {
		if k == "created_utc" || k == "bundle_hash" {
			continue
		}
		stable[k] = v
	}
	hash, err := canonical.HashDocument(stable)
	if err != nil {
		return "", fmt.Errorf("bundle: hash manifest: %w", err)
	}
	return hash, nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func entryMapDocument(entries map[string]Entry) map[string]any {
	doc := make(map[string]any, len(entries))
	for key, entry := range entries {
		doc[key] = map[string]any{"path": entry.Path, "sha256": entry.SHA256}
	}
	return doc
}

func transfer(src, dst string, mode Mode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if mode == ModeHardlink {
		if err := os.Link(src, dst); err == nil {
			return nil
		}
		// Cross-device or unsupported: fall through to a copy.
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
