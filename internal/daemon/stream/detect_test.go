package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTestSummary(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  TestSummary
		found bool
	}{
		{"pytest passed only", "====== 5 passed in 1.23s ======", TestSummary{"pytest", 5, 0, 0}, true},
		{"pytest with failures", "3 passed, 2 failed", TestSummary{"pytest", 3, 2, 0}, true},
		{"pytest skipped", "10 passed, 1 failed, 3 skipped", TestSummary{"pytest", 10, 1, 3}, true},
		{"pytest deselected", "8 passed, 2 deselected", TestSummary{"pytest", 8, 0, 2}, true},
		{"word inside identifier", "FAILED test_something_passed - AssertionError", TestSummary{}, false},
		{"cargo ok", "test result: ok. 10 passed; 0 failed; 0 ignored; 0 measured", TestSummary{"cargo", 10, 0, 0}, true},
		{"cargo failed", "test result: FAILED. 8 passed; 2 failed; 1 ignored", TestSummary{"cargo", 8, 2, 1}, true},
		{"cargo header only", "running 5 tests", TestSummary{}, false},
		{"cargo all zero", "test result: ok. 0 passed; 0 failed; 0 ignored", TestSummary{}, false},
		{"plain text", "all good", TestSummary{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectTestSummary(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello…", Truncate("hello world", 5))
	assert.Equal(t, "caf…", Truncate("café", 3))
	assert.Equal(t, "hi🎉b…", Truncate("hi🎉bye", 4))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("", 3))
}

func TestExtractRunInstructions(t *testing.T) {
	text := `Done. {"run_instructions": {"build_command": "go build ./...", "run_command": "./app", "artifacts": ["app"], "notes": "uses {braces}"}} trailing }`
	ri := ExtractRunInstructions(text)
	if assert.NotNil(t, ri) {
		assert.Equal(t, "go build ./...", ri.BuildCommand)
		assert.Equal(t, "./app", ri.RunCommand)
		assert.Equal(t, []string{"app"}, ri.Artifacts)
		assert.Equal(t, "uses {braces}", ri.Notes)
	}

	assert.Nil(t, ExtractRunInstructions("no instructions here"))
	assert.Nil(t, ExtractRunInstructions(`{"run_instructions": {"build_command": `))
}
