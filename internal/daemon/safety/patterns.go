package safety

import "regexp"

// Category groups dangerous patterns by the kind of harm they describe.
type Category string

const (
	CategoryFileDestruction     Category = "file_destruction"
	CategoryGitDestruction      Category = "git_destruction"
	CategoryPermissiveAccess    Category = "permissive_access"
	CategoryDatabaseDestruction Category = "database_destruction"
	CategoryTraversal           Category = "traversal"
	CategorySystemPath          Category = "system_path"
	CategorySensitiveFile       Category = "sensitive_file"
	CategoryPathLimits          Category = "path_limits"
	CategoryExtension           Category = "extension"
)

// Pattern is one immutable dangerous-pattern rule.
type Pattern struct {
	Category    Category
	Rule        *regexp.Regexp
	Description string
	Severity    int // 1-5
}

func pattern(c Category, expr, desc string, severity int) Pattern {
	return Pattern{Category: c, Rule: regexp.MustCompile(expr), Description: desc, Severity: severity}
}

// Commands are lower-cased before matching, so the SQL rules are compiled
// case-insensitive to stay reachable.
var commandPatterns = []Pattern{
	pattern(CategoryFileDestruction, `rm\s+-rf?\s+/\s*$`, "Recursive deletion of root directory", 5),
	pattern(CategoryFileDestruction, `rm\s+-rf?\s+/\*`, "Recursive deletion of root contents", 5),
	pattern(CategoryFileDestruction, `rm\s+-rf?\s+~`, "Recursive deletion of home directory", 5),
	pattern(CategoryFileDestruction, `rm\s+-rf?\s+\$home`, "Recursive deletion of $HOME", 5),
	pattern(CategoryFileDestruction, `dd\s+if=/dev/zero`, "Disk wiping with dd", 5),
	pattern(CategoryFileDestruction, `mkfs\.`, "Filesystem formatting", 5),
	pattern(CategoryFileDestruction, `>\s*/dev/sd[a-z]`, "Writing to raw disk device", 5),
	pattern(CategoryFileDestruction, `:?\(\)\{:\|:&\};:`, "Fork bomb pattern", 5),

	pattern(CategoryGitDestruction, `git\s+reset\s+--hard`, "Hard reset (discards local changes)", 4),
	pattern(CategoryGitDestruction, `git\s+checkout\s+--\s+`, "Git checkout with path (reverts files)", 4),
	pattern(CategoryGitDestruction, `git\s+clean\s+-[fd]`, "Git clean (deletes untracked files)", 4),
	pattern(CategoryGitDestruction, `git\s+push\s+.*--force.*\s+(main|master)`, "Force push to main/master", 4),
	pattern(CategoryGitDestruction, `git\s+push\s+-f\s+.*\s+(main|master)`, "Force push to main/master (short flag)", 4),

	pattern(CategoryPermissiveAccess, `chmod\s+777\s+`, "Overly permissive file permissions", 3),
	pattern(CategoryPermissiveAccess, `chmod\s+-r\s+777`, "Recursive chmod 777", 3),
	pattern(CategoryPermissiveAccess, `chown\s+.*\s+/etc`, "Ownership change on /etc", 4),
	pattern(CategoryPermissiveAccess, `chown\s+.*\s+/usr`, "Ownership change on /usr", 4),
	pattern(CategoryPermissiveAccess, `chown\s+.*\s+/bin`, "Ownership change on /bin", 4),

	pattern(CategoryDatabaseDestruction, `(?i)DROP\s+TABLE`, "SQL DROP TABLE", 4),
	pattern(CategoryDatabaseDestruction, `(?i)DROP\s+DATABASE`, "SQL DROP DATABASE", 5),
	pattern(CategoryDatabaseDestruction, `(?i)DELETE\s+FROM`, "SQL DELETE FROM", 3),
	pattern(CategoryDatabaseDestruction, `(?i)TRUNCATE\s+TABLE`, "SQL TRUNCATE TABLE", 4),
}

var traversalPatterns = []Pattern{
	pattern(CategoryTraversal, `\.\./`, "Directory traversal using ../", 4),
	pattern(CategoryTraversal, `\.\.\.`, "Directory traversal using ...", 4),
	pattern(CategoryTraversal, `//+`, "Multiple consecutive slashes", 3),
}

var unixSystemPatterns = []Pattern{
	pattern(CategorySystemPath, `^/etc/`, "/etc (system configuration)", 4),
	pattern(CategorySystemPath, `^/bin/`, "/bin (essential binaries)", 4),
	pattern(CategorySystemPath, `^/sbin/`, "/sbin (system binaries)", 4),
	pattern(CategorySystemPath, `^/usr/bin/`, "/usr/bin (user binaries)", 4),
	pattern(CategorySystemPath, `^/usr/sbin/`, "/usr/sbin (system binaries)", 4),
	pattern(CategorySystemPath, `^/var/`, "/var (variable data)", 3),
	pattern(CategorySystemPath, `^/tmp/`, "/tmp (system temporary)", 3),
	pattern(CategorySystemPath, `^/dev/`, "/dev (device files)", 5),
	pattern(CategorySystemPath, `^/proc/`, "/proc (process info)", 4),
	pattern(CategorySystemPath, `^/sys/`, "/sys (system info)", 4),
}

var windowsSystemPatterns = []Pattern{
	pattern(CategorySystemPath, `^[cC]:[/\\][wW]indows[/\\]`, `C:\Windows (system directory)`, 4),
	pattern(CategorySystemPath, `^[cC]:[/\\][pP]rogram [fF]iles[/\\]`, `C:\Program Files`, 3),
}

var sensitiveFilePatterns = []Pattern{
	pattern(CategorySensitiveFile, `\.env$`, "Environment file", 4),
	pattern(CategorySensitiveFile, `\.secret`, "Secret file", 4),
	pattern(CategorySensitiveFile, `credentials`, "Credentials file", 5),
	pattern(CategorySensitiveFile, `passwd$`, "Password file", 5),
	pattern(CategorySensitiveFile, `shadow$`, "Shadow password file", 5),
	pattern(CategorySensitiveFile, `\.ssh/`, "SSH directory", 5),
	pattern(CategorySensitiveFile, `\.aws/`, "AWS credentials directory", 5),
	pattern(CategorySensitiveFile, `\.gnupg/`, "GPG directory", 5),
}

var defaultAllowedExtensions = []string{
	".md", ".json", ".py", ".js", ".ts", ".jsx", ".tsx", ".txt", ".yml", ".yaml",
	".toml", ".cfg", ".conf", ".sh", ".ps1", ".html", ".css", ".svg", ".png", ".jpg",
	".gif", ".rs", ".go", ".java", ".c", ".cpp", ".h", ".hpp",
}
