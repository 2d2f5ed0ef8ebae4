package stream

import (
	"regexp"
	"strconv"
	"strings"
)

// TestSummary is a test-framework summary found in free text.
type TestSummary struct {
	Framework string
	Passed    int
	Failed    int
	Skipped   int
}

var pytestSummaryRe = regexp.MustCompile(`(\d+) passed(?:,\s*(\d+) failed)?(?:,\s*(\d+) (?:skipped|deselected))?`)

// DetectTestSummary scans text for a pytest-style or cargo-style summary,
// in that order. First match wins.
func DetectTestSummary(text string) (TestSummary, bool) {
	if s, ok := parsePytestSummary(text); ok {
		return s, true
	}
	return parseCargoSummary(text)
}

// parsePytestSummary reads "N passed[, N failed][, N skipped|deselected]".
// A "passed" followed by ';' belongs to cargo's grammar and is skipped.
func parsePytestSummary(text string) (TestSummary, bool) {
	for _, m := range pytestSummaryRe.FindAllStringSubmatchIndex(text, -1) {
		passedEnd := m[3] + len(" passed")
		if passedEnd < len(text) && text[passedEnd] == ';' {
			continue
		}
		s := TestSummary{Framework: "pytest"}
		s.Passed = atoiGroup(text, m, 1)
		s.Failed = atoiGroup(text, m, 2)
		s.Skipped = atoiGroup(text, m, 3)
		return s, true
	}
	return TestSummary{}, false
}

// parseCargoSummary reads "test result: ok. N passed; N failed; N ignored".
// An all-zero summary counts as no match.
func parseCargoSummary(text string) (TestSummary, bool) {
	idx := strings.Index(text, "test result:")
	if idx < 0 {
		return TestSummary{}, false
	}
	rest := text[idx+len("test result:"):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return TestSummary{}, false
	}
	rest = rest[dot+1:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}

	s := TestSummary{Framework: "cargo"}
	for _, seg := range strings.Split(rest, ";") {
		seg = strings.TrimSpace(seg)
		n, ok := leadingInt(seg)
		if !ok {
			continue
		}
		switch {
		case strings.HasSuffix(seg, "passed"):
			s.Passed = n
		case strings.HasSuffix(seg, "failed"):
			s.Failed = n
		case strings.HasSuffix(seg, "ignored"):
			s.Skipped = n
		}
	}
	if s.Passed == 0 && s.Failed == 0 && s.Skipped == 0 {
		return TestSummary{}, false
	}
	return s, true
}

func atoiGroup(text string, m []int, g int) int {
	start, end := m[2*g], m[2*g+1]
	if start < 0 {
		return 0
	}
	n, _ := strconv.Atoi(text[start:end])
	return n
}

func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}
