package obsidian

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/models"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestVault(t *testing.T) (*Vault, string) {
	t.Helper()
	root := t.TempDir()
	writeNote(t, root, "Projects/Release Plan.md", "---\ntitle: Q3 Release\ntags: [release, \"#planning\"]\n---\n# Ignored heading\n\n## Scope\ntext\n")
	writeNote(t, root, "Projects/notes.md", "Intro\n\n# Design *Decisions*\n\n## Storage\n")
	writeNote(t, root, "inbox.md", "no headings here\n")
	writeNote(t, root, "image.png", "binary")
	writeNote(t, root, ".obsidian/workspace.md", "# hidden\n")

	v, err := NewVault(models.ObsidianConfig{Enabled: true, VaultPath: root}, safety.NewValidator())
	require.NoError(t, err)
	require.Equal(t, root, v.Root())
	return v, root
}

func TestNewVaultRequiresConfiguration(t *testing.T) {
	_, err := NewVault(models.ObsidianConfig{Enabled: false, VaultPath: t.TempDir()}, nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewVault(models.ObsidianConfig{Enabled: true}, nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewVault(models.ObsidianConfig{Enabled: true, VaultPath: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestListNotes(t *testing.T) {
	v, _ := newTestVault(t)

	notes, err := v.List("")
	require.NoError(t, err)

	paths := make([]string, 0, len(notes))
	for _, n := range notes {
		paths = append(paths, n.RelativePath)
	}
	assert.Equal(t, []string{"Projects/Release Plan.md", "Projects/notes.md", "inbox.md"}, paths)

	assert.Equal(t, "Q3 Release", notes[0].Title)
	assert.Equal(t, []string{"release", "planning"}, notes[0].Tags)
	assert.Equal(t, "Design Decisions", notes[1].Title)
	assert.Equal(t, "inbox", notes[2].Title)
	assert.Positive(t, notes[2].SizeBytes)

	sub, err := v.List("Projects")
	require.NoError(t, err)
	assert.Len(t, sub, 2)

	_, err = v.List("Nope")
	assert.True(t, errors.Is(err, ErrNoteNotFound))
}

func TestReadNote(t *testing.T) {
	v, _ := newTestVault(t)

	note, err := v.Read("Projects/Release Plan.md")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Release", note.Title)
	assert.Equal(t, []string{"Ignored heading", "Scope"}, note.Headings)
	assert.Equal(t, "Q3 Release", note.Frontmatter["title"])
	assert.Contains(t, note.Content, "## Scope")

	_, err = v.Read("missing.md")
	assert.True(t, errors.Is(err, ErrNoteNotFound))

	_, err = v.Read("Projects")
	assert.True(t, errors.Is(err, ErrNoteNotFound))
}

func TestPathsAreGated(t *testing.T) {
	v, _ := newTestVault(t)

	_, err := v.Read("../../etc/passwd")
	var denial *safety.Denial
	require.True(t, errors.As(err, &denial))
	assert.Equal(t, safety.CategoryTraversal, denial.Category)

	_, err = v.List("../outside")
	assert.Error(t, err)
}

func TestFrontmatterHelpers(t *testing.T) {
	body, fm := splitFrontmatter([]byte("---\na: 1\n---\nbody"))
	assert.Equal(t, "body", string(body))
	assert.Equal(t, "a: 1", string(fm))

	body, fm = splitFrontmatter([]byte("---\nnever closed"))
	assert.Equal(t, "---\nnever closed", string(body))
	assert.Nil(t, fm)

	assert.Nil(t, parseFrontmatter([]byte(": : bad")))
	assert.Equal(t, []string{"a", "b"}, tagsOf(map[string]interface{}{"tags": "#a, b"}))
}
