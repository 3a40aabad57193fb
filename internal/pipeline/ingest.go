// Package pipeline sequences a register run: load per-group record files,
// resolve every scraped name, apply the eligibility filter, persist the
// dated snapshot and diff it against the previous one. The core packages it
// calls stay independent of this ordering.
package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mysociety/appgtrack/internal/model"
)

// LoadGroups reads every per-group JSON file in dir, one file per group
// named <slug>.json, validating each on ingestion. Scraped shape is never
// trusted: records failing validation abort the load rather than entering a
// snapshot.
func LoadGroups(dir string) ([]model.Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read groups dir %s", dir)
	}

	var groups []model.Group
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g, err := LoadGroup(path)
		if err != nil {
			return nil, err
		}
		if want := strings.TrimSuffix(entry.Name(), ".json"); g.Slug != want {
			return nil, eris.Errorf("pipeline: %s holds slug %q, file name says %q", path, g.Slug, want)
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Slug < groups[j].Slug })
	zap.L().Info("groups loaded", zap.String("dir", dir), zap.Int("count", len(groups)))
	return groups, nil
}

// LoadGroup reads and validates one per-group JSON file.
func LoadGroup(path string) (model.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Group{}, eris.Wrapf(err, "pipeline: read %s", path)
	}
	var g model.Group
	if err := json.Unmarshal(data, &g); err != nil {
		return model.Group{}, eris.Wrapf(err, "pipeline: parse %s", path)
	}
	if err := g.Validate(); err != nil {
		return model.Group{}, eris.Wrapf(err, "pipeline: validate %s", path)
	}
	return g, nil
}

// WriteGroups writes each group back as <slug>.json in dir, with resolved
// identifiers and removed flags populated. Each file is written atomically
// via a rename so an interrupted run never leaves a half-written record.
func WriteGroups(dir string, groups []model.Group) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create %s", dir)
	}
	for _, g := range groups {
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return eris.Wrapf(err, "pipeline: marshal group %s", g.Slug)
		}
		path := filepath.Join(dir, g.Slug+".json")
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return eris.Wrapf(err, "pipeline: write %s", tmp)
		}
		if err := os.Rename(tmp, path); err != nil {
			return eris.Wrapf(err, "pipeline: rename %s", path)
		}
	}
	return nil
}
