package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LoadDir reads every *.json profile record in dir, in lexical filename
// order so the catalog's insertion-order tie-break is stable across runs.
// The file basename (without extension) becomes the profile id; a missing
// name falls back to the id. Records that cannot be read, decoded or
// validated are skipped with a log line; one bad file never poisons the
// catalog.
func LoadDir(dir string, lg *slog.Logger) ([]*Profile, error) {
	if lg == nil {
		lg = slog.Default()
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("globbing profile dir %s: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("profile dir %s: %w", dir, err)
	}

	var profiles []*Profile
	for _, path := range paths {
		p, err := loadFile(path)
		if err != nil {
			lg.Warn("skipping profile", "path", path, "error", err)
			continue
		}
		profiles = append(profiles, p)
	}
	lg.Info("loaded profiles", "dir", dir, "count", len(profiles))
	return profiles, nil
}

func loadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	p.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	if p.Name == "" {
		p.Name = p.ID
	}

	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}
	return &p, nil
}
