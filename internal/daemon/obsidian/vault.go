// Package obsidian reads notes from an Obsidian vault.
package obsidian

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/models"
)

var (
	// ErrNotConfigured is returned when no vault is configured or enabled.
	ErrNotConfigured = errors.New("obsidian vault not configured")
	// ErrNoteNotFound is returned for a missing note or folder.
	ErrNoteNotFound = errors.New("note not found")
)

const noteExt = ".md"

// Vault reads notes below a root directory. Relative paths pass the safety
// validator before touching the filesystem.
type Vault struct {
	root      string
	validator *safety.Validator
	log       zerolog.Logger
}

// NewVault opens the vault described by cfg.
func NewVault(cfg models.ObsidianConfig, validator *safety.Validator) (*Vault, error) {
	if !cfg.Enabled || strings.TrimSpace(cfg.VaultPath) == "" {
		return nil, ErrNotConfigured
	}
	root, err := filepath.Abs(cfg.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotConfigured, root)
	}
	if validator == nil {
		validator = safety.NewValidator()
	}
	return &Vault{
		root:      root,
		validator: validator,
		log:       log.With().Str("component", "obsidian").Logger(),
	}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string { return v.root }

// resolve validates rel and joins it to the root. An empty rel is the root.
func (v *Vault) resolve(rel string) (string, error) {
	rel = filepath.ToSlash(strings.TrimSpace(rel))
	if rel == "" || rel == "." {
		return v.root, nil
	}
	if err := v.validator.ValidatePath(rel); err != nil {
		return "", err
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative to the vault", rel)
	}
	full := filepath.Join(v.root, filepath.FromSlash(rel))
	if full != v.root && !strings.HasPrefix(full, v.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the vault", rel)
	}
	return full, nil
}

// List returns the notes under folder (recursively), sorted by path.
// Hidden directories such as .obsidian are skipped.
func (v *Vault) List(folder string) ([]models.ObsidianNote, error) {
	dir, err := v.resolve(folder)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: folder %q", ErrNoteNotFound, folder)
	}

	var notes []models.ObsidianNote
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			v.log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), noteExt) {
			return nil
		}
		note, err := v.describe(path)
		if err != nil {
			v.log.Debug().Err(err).Str("path", path).Msg("Skipping note")
			return nil
		}
		notes = append(notes, note.ObsidianNote)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].RelativePath < notes[j].RelativePath })
	return notes, nil
}

// Read returns one note with its frontmatter, headings and body.
func (v *Vault) Read(rel string) (*models.ObsidianNoteContent, error) {
	if strings.TrimSpace(rel) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNoteNotFound)
	}
	full, err := v.resolve(rel)
	if err != nil {
		return nil, err
	}
	note, err := v.describe(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, rel)
	}
	return note, err
}

func (v *Vault) describe(full string) (*models.ObsidianNoteContent, error) {
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNoteNotFound, full)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(v.root, full)
	if err != nil {
		return nil, err
	}

	body, rawFM := splitFrontmatter(content)
	fm := parseFrontmatter(rawFM)
	hs := headings(body)
	stem := strings.TrimSuffix(filepath.Base(full), filepath.Ext(full))

	headingTexts := make([]string, 0, len(hs))
	for _, h := range hs {
		headingTexts = append(headingTexts, h.text)
	}

	return &models.ObsidianNoteContent{
		ObsidianNote: models.ObsidianNote{
			RelativePath: filepath.ToSlash(rel),
			Title:        title(fm, hs, stem),
			Tags:         tagsOf(fm),
			SizeBytes:    info.Size(),
			ModifiedAt:   info.ModTime().UTC(),
		},
		Frontmatter: fm,
		Headings:    headingTexts,
		Content:     string(content),
	}, nil
}
