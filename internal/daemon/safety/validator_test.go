package safety

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denialOf(t *testing.T, err error) *Denial {
	t.Helper()
	var d *Denial
	require.True(t, errors.As(err, &d), "expected *Denial, got %v", err)
	return d
}

func TestValidateCommand(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		command  string
		category Category
		severity int
	}{
		{"root deletion", "rm -rf /", CategoryFileDestruction, 5},
		{"root contents", "rm -rf /*", CategoryFileDestruction, 5},
		{"home deletion", "rm -rf ~", CategoryFileDestruction, 5},
		{"home var", "rm -rf $HOME", CategoryFileDestruction, 5},
		{"dd wipe", "dd if=/dev/zero of=/dev/sda", CategoryFileDestruction, 5},
		{"mkfs", "mkfs.ext4 /dev/sdb1", CategoryFileDestruction, 5},
		{"fork bomb", ":(){:|:&};:", CategoryFileDestruction, 5},
		{"hard reset", "git reset --hard", CategoryGitDestruction, 4},
		{"git clean", "git clean -fdx", CategoryGitDestruction, 4},
		{"force push", "git push origin --force main", CategoryGitDestruction, 4},
		{"chmod 777", "chmod 777 /etc", CategoryPermissiveAccess, 3},
		{"recursive chmod", "chmod -R 777 .", CategoryPermissiveAccess, 3},
		{"drop database", "DROP DATABASE users", CategoryDatabaseDestruction, 5},
		{"drop table lower", "psql -c 'drop table accounts'", CategoryDatabaseDestruction, 4},
		{"delete from", "sqlite3 app.db 'DELETE FROM users'", CategoryDatabaseDestruction, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := denialOf(t, v.ValidateCommand(tt.command))
			assert.Equal(t, tt.category, d.Category)
			assert.Equal(t, tt.severity, d.Severity)
			assert.Equal(t, tt.command, d.Subject)
		})
	}
}

func TestValidateCommandAllowed(t *testing.T) {
	v := NewValidator()
	for _, cmd := range []string{"ls -la", "git status", "npm install", "go test ./...", "rm -rf build/", "git push origin feature"} {
		assert.NoError(t, v.ValidateCommand(cmd), cmd)
	}
}

func TestValidateCommandErrorMessage(t *testing.T) {
	err := NewValidator().ValidateCommand("rm -rf /")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dangerous command blocked: rm -rf /")
	assert.Contains(t, err.Error(), "Severity: 5/5")
}

func TestValidatePathDenied(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		path     string
		category Category
	}{
		{"relative traversal", "../etc/passwd", CategoryTraversal},
		{"nested traversal", "foo/../../secrets", CategoryTraversal},
		{"double slash", "src//main.go", CategoryTraversal},
		{"etc", "/etc/passwd", CategorySystemPath},
		{"bin", "/bin/bash", CategorySystemPath},
		{"dev", "/dev/sda1", CategorySystemPath},
		{"windows", `C:\Windows\System32\drivers`, CategorySystemPath},
		{"dotenv", ".env", CategorySensitiveFile},
		{"home dotenv", "/home/user/.env", CategorySensitiveFile},
		{"credentials", "credentials.json", CategorySensitiveFile},
		{"ssh key", "/home/user/.ssh/id_rsa", CategorySensitiveFile},
		{"null byte", "src/ma\x00in.go", CategoryPathLimits},
		{"long filename", "src/" + strings.Repeat("a", 256), CategoryPathLimits},
		{"long path", "/" + strings.Repeat("d/", 2100), CategoryPathLimits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := denialOf(t, v.ValidatePath(tt.path))
			assert.Equal(t, tt.category, d.Category)
		})
	}
}

func TestValidatePathAllowed(t *testing.T) {
	v := NewValidator()
	for _, p := range []string{"/home/user/code", "./src/main.rs", "config.yaml", "README.md", "internal/daemon/server.go"} {
		assert.NoError(t, v.ValidatePath(p), p)
	}
}

func TestValidatePathSeverity(t *testing.T) {
	v := NewValidator()

	assert.Equal(t, 4, denialOf(t, v.ValidatePath("../etc/passwd")).Severity)
	assert.Equal(t, 5, denialOf(t, v.ValidatePath("/dev/null")).Severity)
	assert.Equal(t, 3, denialOf(t, v.ValidatePath("/tmp/x")).Severity)
}

func TestValidateExtension(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateExtension("main.go"))
	assert.NoError(t, v.ValidateExtension("NOTES.MD"))
	assert.NoError(t, v.ValidateExtension("Makefile"))

	d := denialOf(t, v.ValidateExtension("payload.exe"))
	assert.Equal(t, CategoryExtension, d.Category)
	assert.Equal(t, ".exe", d.Detail)
}

func TestSanitizeFilename(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		in   string
		want string
	}{
		{"normal.txt", "normal.txt"},
		{"file:with<bad>chars", "file_with_bad_chars"},
		{"../../../etc/passwd", "_.._.._etc_passwd"},
		{"", "unnamed"},
		{"   ...   ", "unnamed"},
		{"nul\x00byte", "nulbyte"},
		{"tab\there", "tab_here"},
		{"CON", "safe_CON"},
		{"aux.txt", "safe_aux.txt"},
		{"console.log", "console.log"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, v.SanitizeFilename(tt.in))
		})
	}

	long := v.SanitizeFilename(strings.Repeat("é", 300))
	assert.Equal(t, MaxFilenameLength, utf8.RuneCountInString(long))
	assert.Equal(t, strings.Repeat("é", MaxFilenameLength), long)
}
