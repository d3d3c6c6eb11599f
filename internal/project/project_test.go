package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRequiresID(t *testing.T) {
	_, err := Parse([]byte(`{"title": "No ID"}`), "memory")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}

func TestParseDefaultsTitle(t *testing.T) {
	cfg, err := Parse([]byte(`{"id": "ep01"}`), "memory")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Title != "Untitled" {
		t.Fatalf("Title = %q, want Untitled", cfg.Title)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"id": `), "memory")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	if err := os.WriteFile(path, []byte(`{"id": "ep01", "title": "Pilot", "genre": "drama"}`), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ID != "ep01" || cfg.Title != "Pilot" || cfg.Path != path {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Doc["genre"] != "drama" {
		t.Fatalf("Doc[genre] = %v", cfg.Doc["genre"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}
