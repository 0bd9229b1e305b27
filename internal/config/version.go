package config

import (
	"encoding/json"
	"fmt"
)

// CurrentVersion is the current settings schema version
const CurrentVersion = 2

// Migration represents a settings migration function
type Migration struct {
	FromVersion int
	ToVersion   int
	Migrate     func(data map[string]interface{}) (map[string]interface{}, error)
}

// migrations is the list of migrations in order
var migrations = []Migration{
	// 0 -> 1: add version field, no structural changes
	{
		FromVersion: 0,
		ToVersion:   1,
		Migrate: func(data map[string]interface{}) (map[string]interface{}, error) {
			data["version"] = 1
			return data, nil
		},
	},
	// 1 -> 2: shellPath becomes shell, flat linear* keys move under "linear"
	{
		FromVersion: 1,
		ToVersion:   2,
		Migrate: func(data map[string]interface{}) (map[string]interface{}, error) {
			if old, ok := data["shellPath"]; ok {
				if _, exists := data["shell"]; !exists {
					data["shell"] = old
				}
				delete(data, "shellPath")
			}

			linear, _ := data["linear"].(map[string]interface{})
			if linear == nil {
				linear = make(map[string]interface{})
			}
			for oldKey, newKey := range map[string]string{
				"linearApiKey":     "apiKey",
				"linearOAuthToken": "oauthToken",
				"linearTeamId":     "teamId",
			} {
				if v, ok := data[oldKey]; ok {
					if _, exists := linear[newKey]; !exists {
						linear[newKey] = v
					}
					delete(data, oldKey)
				}
			}
			if len(linear) > 0 {
				data["linear"] = linear
			}

			data["version"] = 2
			return data, nil
		},
	},
}

// ParseVersionedSettings parses settings data with version migration support
func ParseVersionedSettings(data []byte) (*Settings, error) {
	// First, parse as raw JSON to get version
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}

	// Detect version (0 if not present = legacy settings)
	version := 0
	if v, ok := raw["version"].(float64); ok {
		version = int(v)
	}

	if version > CurrentVersion {
		return nil, fmt.Errorf("settings version %d is newer than supported version %d", version, CurrentVersion)
	}

	// Settings nested under a "settings" key are lifted to the top level
	if nested, ok := raw["settings"].(map[string]interface{}); ok {
		nested["version"] = raw["version"]
		raw = nested
	}

	if version < CurrentVersion {
		var err error
		raw, err = ApplyMigrations(raw, version)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate settings: %w", err)
		}
	}

	// Re-marshal and unmarshal to get proper types
	migrated, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal migrated settings: %w", err)
	}

	var cfg Settings
	if err := json.Unmarshal(migrated, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &cfg, nil
}

// ApplyMigrations applies all migrations from the given version to CurrentVersion
func ApplyMigrations(data map[string]interface{}, fromVersion int) (map[string]interface{}, error) {
	for _, migration := range migrations {
		if migration.FromVersion == fromVersion {
			var err error
			data, err = migration.Migrate(data)
			if err != nil {
				return nil, fmt.Errorf("migration %d -> %d failed: %w",
					migration.FromVersion, migration.ToVersion, err)
			}
			fromVersion = migration.ToVersion
		}
	}

	if fromVersion < CurrentVersion {
		return nil, fmt.Errorf("no migration path from version %d to %d", fromVersion, CurrentVersion)
	}

	return data, nil
}

// MarshalVersionedSettings serializes settings with a top-level version field
func MarshalVersionedSettings(cfg *Settings) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["version"] = CurrentVersion

	return json.MarshalIndent(fields, "", "  ")
}
