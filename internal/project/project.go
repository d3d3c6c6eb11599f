package project

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"reelpipe/internal/artifact"
)

// ErrConfig reports a malformed or unreadable project configuration.
// It is fatal and surfaces before any stage runs.
var ErrConfig = errors.New("project config error")

// Config is a loaded project configuration.
type Config struct {
	ID    string
	Title string
	Path  string
	Doc   artifact.Document
}

// Load reads and parses a project configuration file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}
	return Parse(raw, path)
}

// Parse builds a Config from raw JSON. The "id" field is required; a
// missing "title" falls back to "Untitled".
func Parse(raw []byte, path string) (Config, error) {
	doc, err := artifact.ParseDocument(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	id, _ := doc["id"].(string)
	if strings.TrimSpace(id) == "" {
		return Config{}, fmt.Errorf("%w: missing required field %q", ErrConfig, "id")
	}

	title, _ := doc["title"].(string)
	if title == "" {
		title = "Untitled"
	}

	return Config{ID: id, Title: title, Path: path, Doc: doc}, nil
}
