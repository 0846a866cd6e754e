package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dailies/internal/fsutil"
	"dailies/internal/model"
)

// SettingsPatch carries the fields to change in Update. Nil fields are left
// alone; an empty string clears the field.
type SettingsPatch struct {
	DefaultProfile *string
	ThemeMode      *string
}

// Settings stores the single cross-profile settings document.
type Settings struct {
	path string
}

// NewSettings returns the settings store for the data directory dir.
func NewSettings(dir string) *Settings {
	return &Settings{path: filepath.Join(dir, SettingsFile)}
}

// Get returns the stored settings, or the zero value when none were saved.
func (s *Settings) Get() (model.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Settings{}, nil
		}
		return model.Settings{}, classifyIO("read settings", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Settings{}, nil
	}

	var out model.Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return model.Settings{}, fmt.Errorf("%w: settings: %v", ErrCorrupt, err)
	}
	return out, nil
}

// Update merges patch into the stored settings and rewrites the document.
// Concurrent writers are serialized but otherwise last writer wins.
func (s *Settings) Update(patch SettingsPatch) (model.Settings, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), fsutil.DirPerm); err != nil {
		return model.Settings{}, classifyIO("create data directory", err)
	}

	var out model.Settings
	err := fsutil.WithLock(s.path, func() error {
		cur, err := s.Get()
		if err != nil {
			// A broken settings file only holds preferences; start over.
			cur = model.Settings{}
		}
		if patch.DefaultProfile != nil {
			cur.DefaultProfile = strings.TrimSpace(*patch.DefaultProfile)
		}
		if patch.ThemeMode != nil {
			cur.ThemeMode = strings.TrimSpace(*patch.ThemeMode)
		}
		if err := fsutil.WriteJSONAtomic(s.path, cur, fsutil.FilePerm); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return model.Settings{}, classifyIO("write settings", err)
	}
	return out, nil
}
