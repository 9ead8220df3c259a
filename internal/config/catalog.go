package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/mission-orbit-sim/kb"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// LoadMissions reads a mission catalog file (YAML, TOML or JSON, chosen by
// extension) shaped as a top-level "missions" list. Entries whose id
// matches one in base start from that mission, so a file only needs the
// fields it changes.
func LoadMissions(path string, base []model.Mission) ([]model.Mission, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read missions file %s: %w", path, err)
	}

	var entries []map[string]any
	if err := v.UnmarshalKey("missions", &entries); err != nil {
		return nil, fmt.Errorf("decode missions in %s: %w", path, err)
	}

	byID := make(map[string]model.Mission, len(base))
	for _, m := range base {
		byID[m.ID] = m
	}

	missions := make([]model.Mission, 0, len(entries))
	for i, entry := range entries {
		id, _ := entry["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("missions file %s: entry %d has no id", path, i)
		}
		m := byID[id]
		if err := decodeMission(entry, &m); err != nil {
			return nil, fmt.Errorf("missions file %s: mission %q: %w", path, id, err)
		}
		missions = append(missions, m)
	}
	return missions, nil
}

// decodeMission overlays entry onto m, leaving fields entry omits as they are.
func decodeMission(entry map[string]any, m *model.Mission) error {
	v := viper.New()
	if err := v.MergeConfigMap(entry); err != nil {
		return err
	}
	return v.Unmarshal(m)
}

// LoadCatalog builds the mission catalog: the built-in presets, overlaid
// with path when it is set.
func LoadCatalog(path string) (*kb.KnowledgeBase, error) {
	catalog := kb.NewDefaultKnowledgeBase()
	if path == "" {
		return catalog, nil
	}
	missions, err := LoadMissions(path, catalog.ListMissions())
	if err != nil {
		return nil, err
	}
	for _, m := range missions {
		if err := catalog.PutMission(m); err != nil {
			return nil, fmt.Errorf("missions file %s: %w", path, err)
		}
	}
	return catalog, nil
}
