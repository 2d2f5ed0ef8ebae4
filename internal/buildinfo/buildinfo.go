// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

import "runtime"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Detail is one labelled line of version output.
type Detail struct {
	Label string
	Value string
}

// Details lists build and runtime facts in display order.
func Details() []Detail {
	return []Detail{
		{"Commit", CommitHash},
		{"Built", BuildDate},
		{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
		{"Go", runtime.Version()},
	}
}
