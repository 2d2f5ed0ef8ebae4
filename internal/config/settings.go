package config

import (
	"github.com/superclaude/superclaude/internal/models"
)

// LoadSettings loads the global settings from ~/.superclaude/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom loads settings from an explicit path.
func LoadSettingsFrom(path string) (*models.Settings, error) {
	s, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	return s, nil
}

// SaveSettings saves the global settings to ~/.superclaude/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// ArchivePath resolves where the execution archive lives.
func ArchivePath(s *models.Settings) (string, error) {
	if s.Archive.Path != "" {
		return s.Archive.Path, nil
	}
	return GlobalArchiveFile()
}
