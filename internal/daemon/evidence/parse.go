package evidence

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	passedRe   = regexp.MustCompile(`(\d+)\s+passed`)
	failedRe   = regexp.MustCompile(`(\d+)\s+failed`)
	skippedRe  = regexp.MustCompile(`(\d+)\s+skipped`)
	errorRe    = regexp.MustCompile(`(\d+)\s+error`)
	coverageRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	goOkRe     = regexp.MustCompile(`(?m)^ok\s+`)
	goFailRe   = regexp.MustCompile(`(?m)^FAIL\s+`)
	cargoRe    = regexp.MustCompile(`(\d+)\s+passed.*?(\d+)\s+failed`)
)

// ParseTestOutput recognises pytest, jest, cargo and go test output.
// Detection order matters: "cargo test" contains "go test", so cargo is
// checked first.
func ParseTestOutput(command, output string) (TestResult, bool) {
	lower := strings.ToLower(output)

	switch {
	case strings.Contains(command, "pytest") || strings.Contains(lower, "pytest"):
		return parsePytest(output), true
	case strings.Contains(command, "jest") || strings.Contains(command, "npm test") || strings.Contains(lower, "tests passed"):
		return parseJest(output), true
	case strings.Contains(command, "cargo test"):
		return parseCargo(output), true
	case strings.Contains(command, "go test"):
		return parseGoTest(output), true
	}
	return TestResult{}, false
}

func parsePytest(output string) TestResult {
	r := TestResult{Framework: "pytest"}
	r.Passed = firstInt(passedRe, output)
	r.Failed = firstInt(failedRe, output)
	r.Skipped = firstInt(skippedRe, output)
	r.Errors = firstInt(errorRe, output)
	if m := coverageRe.FindStringSubmatch(output); m != nil {
		r.Coverage, _ = strconv.ParseFloat(m[1], 64)
	}
	return r
}

func parseJest(output string) TestResult {
	return TestResult{
		Framework: "jest",
		Passed:    firstInt(passedRe, output),
		Failed:    firstInt(failedRe, output),
	}
}

func parseGoTest(output string) TestResult {
	return TestResult{
		Framework: "go",
		Passed:    len(goOkRe.FindAllStringIndex(output, -1)),
		Failed:    len(goFailRe.FindAllStringIndex(output, -1)),
	}
}

func parseCargo(output string) TestResult {
	r := TestResult{Framework: "cargo"}
	if m := cargoRe.FindStringSubmatch(output); m != nil {
		r.Passed, _ = strconv.Atoi(m[1])
		r.Failed, _ = strconv.Atoi(m[2])
	}
	return r
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
