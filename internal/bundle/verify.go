package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelpipe/internal/artifact"
)

// ErrBundleInvalid reports a bundle whose contents no longer match its
// manifest.
var ErrBundleInvalid = errors.New("bundle: verification failed")

// Problem is one verification finding.
type Problem struct {
	Key    string
	Detail string
}

func (p Problem) String() string {
	if p.Key == "" {
		return p.Detail
	}
	return p.Key + ": " + p.Detail
}

// Verify re-checks every file recorded in the bundle manifest and the
// manifest's own content hash. It returns the list of problems found;
// a non-empty list comes with ErrBundleInvalid.
func Verify(bundleRoot string) ([]Problem, error) {
	raw, err := os.ReadFile(filepath.Join(bundleRoot, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("bundle: read manifest: %w", err)
	}
	manifest, err := artifact.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("bundle: parse manifest: %w", err)
	}

	var problems []Problem

	storedHash, _ := manifest["bundle_hash"].(string)
	recomputed, err := manifestHash(manifest)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(storedHash, recomputed) {
		problems = append(problems, Problem{
			Key:    "bundle_hash",
			Detail: fmt.Sprintf("stored %s, recomputed %s", shortHash(storedHash), shortHash(recomputed)),
		})
	}

	files, _ := manifest["artifacts"].(map[string]any)
	if files == nil {
		problems = append(problems, Problem{Key: "artifacts", Detail: "manifest has no artifacts map"})
	}
	for key, value := range files {
		entry, _ := value.(map[string]any)
		relPath, _ := entry["path"].(string)
		wantSum, _ := entry["sha256"].(string)
		if relPath == "" || wantSum == "" {
			problems = append(problems, Problem{Key: key, Detail: "malformed manifest entry"})
			continue
		}
		path := filepath.Join(bundleRoot, filepath.FromSlash(relPath))
		gotSum, err := hashFile(path)
		if err != nil {
			problems = append(problems, Problem{Key: key, Detail: "unreadable: " + err.Error()})
			continue
		}
		if !strings.EqualFold(gotSum, wantSum) {
			problems = append(problems, Problem{
				Key:    key,
				Detail: fmt.Sprintf("checksum mismatch: stored %s, recomputed %s", shortHash(wantSum), shortHash(gotSum)),
			})
		}
	}

	if len(problems) > 0 {
		return problems, ErrBundleInvalid
	}
	return nil, nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
