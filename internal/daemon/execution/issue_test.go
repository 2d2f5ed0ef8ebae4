package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIssue(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		want      IssueType
		wantReset bool
	}{
		{"api 401", `API Error: 401 {"type":"error","error":{"type":"authentication_error"}}`, IssueAuth, false},
		{"oauth expired", "Your OAuth token has expired. Please run /login to re-authenticate.", IssueAuth, false},
		{"login prompt", "Authentication required. Please run /login", IssueAuth, false},
		{"invalid api key", "Invalid API key · Please run /login", IssueAuth, false},
		{"ansi wrapped", "\x1b[31mOAuth token has expired\x1b[0m", IssueAuth, false},
		{"limit with reset", "You've hit your limit · resets 4am (Europe/Lisbon)", IssueRateLimit, true},
		{"limit plain", "You've hit your limit, please wait", IssueRateLimit, false},
		{"too many requests", "Error: too many requests", IssueRateLimit, false},
		{"api 429", "API Error: 429 Rate limit exceeded", IssueRateLimit, false},
		{"normal", "Compiling main.go...", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := DetectIssue(tt.line)
			if tt.want == "" {
				assert.Nil(t, issue)
				return
			}
			require.NotNil(t, issue)
			assert.Equal(t, tt.want, issue.Type)
			assert.Equal(t, tt.wantReset, issue.ResetAt != nil)
		})
	}
}

func TestParseResetTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		clock, zone string
		wantNil     bool
	}{
		{"4am", "Europe/Lisbon", false},
		{"4pm", "", false},
		{"12:30pm", "", false},
		{"14:00", "", false},
		{"9", "PST", false},
		{"invalid", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.clock+"/"+tt.zone, func(t *testing.T) {
			got := ParseResetTime(tt.clock, tt.zone)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.False(t, got.Before(now.Add(-time.Second)), "reset time should not be in the past")
			assert.True(t, got.Before(now.Add(25*time.Hour)))
		})
	}
}

func TestIssuePayload(t *testing.T) {
	auth := DetectIssue("Please run /login")
	require.NotNil(t, auth)
	p := auth.Payload()
	assert.Equal(t, "auth_required", p.ErrorType)
	assert.False(t, p.Recoverable)

	limit := DetectIssue("You've hit your limit · resets 4am (UTC)")
	require.NotNil(t, limit)
	p = limit.Payload()
	assert.Equal(t, "rate_limited", p.ErrorType)
	assert.True(t, p.Recoverable)
	assert.Contains(t, p.Message, "resets at")
}
