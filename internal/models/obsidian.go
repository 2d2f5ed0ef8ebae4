package models

import "time"

// ObsidianConfig points the daemon at an Obsidian vault.
type ObsidianConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	VaultPath  string   `json:"vault_path" yaml:"vault_path"`
	ReadPaths  []string `json:"read_paths,omitempty" yaml:"read_paths,omitempty"`
	OutputBase string   `json:"output_base,omitempty" yaml:"output_base,omitempty"`
}

// ObsidianNote describes a note inside the vault.
type ObsidianNote struct {
	RelativePath string    `json:"relative_path"`
	Title        string    `json:"title"`
	Tags         []string  `json:"tags,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// ObsidianNoteContent is a note plus its body.
type ObsidianNoteContent struct {
	ObsidianNote
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Headings    []string               `json:"headings,omitempty"`
	Content     string                 `json:"content"`
}
