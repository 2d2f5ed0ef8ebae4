package execution

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/superclaude/superclaude/internal/models"
)

// IssueType classifies an agent-side problem that needs the user.
type IssueType string

const (
	IssueAuth      IssueType = "auth_required"
	IssueRateLimit IssueType = "rate_limited"
)

// Issue is an auth or rate-limit problem spotted in agent stderr.
type Issue struct {
	Type       IssueType
	DetectedAt time.Time
	Message    string
	ResetAt    *time.Time // rate limits only, when the message names a time
}

// Payload converts the issue into an ErrorOccurred event payload. Rate limits
// clear on their own; auth problems do not.
func (i *Issue) Payload() *models.ErrorOccurred {
	msg := i.Message
	if i.ResetAt != nil {
		msg += " (resets at " + i.ResetAt.Format(time.RFC3339) + ")"
	}
	return &models.ErrorOccurred{
		ErrorType:   string(i.Type),
		Message:     msg,
		Recoverable: i.Type == IssueRateLimit,
	}
}

var authPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)API Error:\s*401.*authentication_error`),
	regexp.MustCompile(`(?i)OAuth token has expired`),
	regexp.MustCompile(`(?i)Please run /login`),
	regexp.MustCompile(`(?i)authentication_error.*OAuth token`),
	regexp.MustCompile(`(?i)invalid.*(token|api key)`),
	regexp.MustCompile(`(?i)token.*expired`),
}

var rateLimitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)You've hit your limit`),
	regexp.MustCompile(`(?i)rate limit`),
	regexp.MustCompile(`(?i)too many requests`),
	regexp.MustCompile(`(?i)API Error:\s*429`),
}

var resetPattern = regexp.MustCompile(`(?i)resets?\s+(\d+(?::\d+)?(?:\s*(?:am|pm))?)\s*(?:\(([^)]+)\))?`)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07`)

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// DetectIssue checks one output line. Auth problems win over rate limits.
func DetectIssue(line string) *Issue {
	line = strings.TrimSpace(ansiPattern.ReplaceAllString(line, ""))
	if line == "" {
		return nil
	}
	if matchesAny(authPatterns, line) {
		return &Issue{Type: IssueAuth, DetectedAt: time.Now(), Message: line}
	}
	if matchesAny(rateLimitPatterns, line) {
		issue := &Issue{Type: IssueRateLimit, DetectedAt: time.Now(), Message: line}
		if m := resetPattern.FindStringSubmatch(line); len(m) >= 2 {
			issue.ResetAt = ParseResetTime(m[1], m[2])
		}
		return issue
	}
	return nil
}

var zoneAliases = map[string]string{
	"Lisbon": "Europe/Lisbon",
	"PT":     "America/Los_Angeles",
	"PST":    "America/Los_Angeles",
	"PDT":    "America/Los_Angeles",
	"ET":     "America/New_York",
	"EST":    "America/New_York",
	"EDT":    "America/New_York",
	"UTC":    "UTC",
	"GMT":    "UTC",
}

var resetLayouts = []string{"3pm", "3:04pm", "3 pm", "3:04 pm", "15:04"}

// ParseResetTime turns "4am" or "4:30 PM" plus an optional zone into the next
// matching wall-clock time. Returns nil when nothing parses.
func ParseResetTime(clock, zone string) *time.Time {
	clock = strings.ToLower(strings.TrimSpace(clock))
	if clock == "" {
		return nil
	}

	loc := time.Local
	if zone = strings.TrimSpace(zone); zone != "" {
		if alias, ok := zoneAliases[zone]; ok {
			zone = alias
		}
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	now := time.Now().In(loc)

	next := func(hour, minute int) *time.Time {
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		if t.Before(now) {
			t = t.Add(24 * time.Hour)
		}
		return &t
	}

	for _, layout := range resetLayouts {
		if t, err := time.ParseInLocation(layout, clock, loc); err == nil {
			return next(t.Hour(), t.Minute())
		}
	}
	if h, err := strconv.Atoi(clock); err == nil && h >= 0 && h <= 23 {
		return next(h, 0)
	}
	return nil
}
