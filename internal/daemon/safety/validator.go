// Package safety denies destructive shell commands and sensitive file paths
// before the daemon records them as evidence.
package safety

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxPathLength     = 4096
	MaxFilenameLength = 255
)

// Denial is returned for any operation a rule rejects.
type Denial struct {
	Category    Category
	Description string
	Severity    int
	Subject     string // the command or path that was denied
	Detail      string // extra context such as lengths or the extension
}

func (d *Denial) Error() string {
	switch d.Category {
	case CategoryFileDestruction, CategoryGitDestruction, CategoryPermissiveAccess, CategoryDatabaseDestruction:
		return fmt.Sprintf("Dangerous command blocked: %s\nReason: %s\nSeverity: %d/5", d.Subject, d.Description, d.Severity)
	case CategoryTraversal:
		return fmt.Sprintf("Path traversal detected: %q\nPattern: %s", d.Subject, d.Description)
	case CategorySystemPath:
		return fmt.Sprintf("System path access blocked: %q\nPattern: %s", d.Subject, d.Description)
	case CategorySensitiveFile:
		return fmt.Sprintf("Sensitive file access blocked: %q\nPattern: %s", d.Subject, d.Description)
	case CategoryExtension:
		return fmt.Sprintf("Disallowed file extension: %q\nExtension: %s", d.Subject, d.Detail)
	}
	return fmt.Sprintf("%s: %q (%s)", d.Description, d.Subject, d.Detail)
}

// Reason is the one-line form used in event payloads.
func (d *Denial) Reason() string {
	return fmt.Sprintf("%s (severity %d/5)", d.Description, d.Severity)
}

// Validator evaluates the fixed rule tables. It has no mutable state and is
// safe for concurrent use.
type Validator struct {
	allowedExtensions map[string]struct{}
}

// NewValidator returns a validator with the default extension allow-list.
func NewValidator() *Validator {
	exts := make(map[string]struct{}, len(defaultAllowedExtensions))
	for _, e := range defaultAllowedExtensions {
		exts[e] = struct{}{}
	}
	return &Validator{allowedExtensions: exts}
}

// ValidateCommand checks a shell command against the command rules.
// First match wins.
func (v *Validator) ValidateCommand(command string) error {
	lower := strings.ToLower(command)
	for _, p := range commandPatterns {
		if p.Rule.MatchString(lower) {
			return &Denial{
				Category:    p.Category,
				Description: p.Description,
				Severity:    p.Severity,
				Subject:     command,
			}
		}
	}
	return nil
}

// ValidatePath checks length limits, null bytes, traversal, system
// directories and sensitive filenames, in that order.
func (v *Validator) ValidatePath(path string) error {
	if utf8.RuneCountInString(path) > MaxPathLength {
		return &Denial{
			Category:    CategoryPathLimits,
			Description: "Path too long",
			Severity:    3,
			Subject:     path,
			Detail:      fmt.Sprintf("%d > %d", utf8.RuneCountInString(path), MaxPathLength),
		}
	}
	if name := filepath.Base(path); utf8.RuneCountInString(name) > MaxFilenameLength {
		return &Denial{
			Category:    CategoryPathLimits,
			Description: "Filename too long",
			Severity:    3,
			Subject:     name,
			Detail:      fmt.Sprintf("%d > %d", utf8.RuneCountInString(name), MaxFilenameLength),
		}
	}
	if strings.ContainsRune(path, 0) {
		return &Denial{
			Category:    CategoryPathLimits,
			Description: "Null byte detected in path",
			Severity:    5,
			Subject:     path,
		}
	}

	lower := strings.ToLower(path)
	for _, table := range [][]Pattern{traversalPatterns, unixSystemPatterns, windowsSystemPatterns, sensitiveFilePatterns} {
		if p, ok := firstMatch(table, lower); ok {
			return &Denial{
				Category:    p.Category,
				Description: p.Description,
				Severity:    p.Severity,
				Subject:     path,
			}
		}
	}
	return nil
}

// ValidateExtension rejects files whose extension is not allow-listed.
// Paths without an extension pass.
func (v *Validator) ValidateExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	if _, ok := v.allowedExtensions[ext]; ok {
		return nil
	}
	return &Denial{
		Category:    CategoryExtension,
		Description: "Disallowed file extension",
		Severity:    2,
		Subject:     path,
		Detail:      ext,
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

var windowsReservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// SanitizeFilename turns arbitrary text into a safe single path component.
func (v *Validator) SanitizeFilename(name string) string {
	s := strings.ReplaceAll(name, "\x00", "")
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, ". ")
	if s == "" {
		s = "unnamed"
	}
	if r := []rune(s); len(r) > MaxFilenameLength {
		s = string(r[:MaxFilenameLength])
	}

	upper := strings.ToUpper(s)
	for _, reserved := range windowsReservedNames {
		if upper == reserved || strings.HasPrefix(upper, reserved+".") {
			return "safe_" + s
		}
	}
	return s
}

func firstMatch(table []Pattern, s string) (Pattern, bool) {
	for _, p := range table {
		if p.Rule.MatchString(s) {
			return p, true
		}
	}
	return Pattern{}, false
}
