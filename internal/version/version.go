// Package version reports build information injected at link time.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set with -ldflags "-X github.com/mrz1836/skillmint/internal/version.Version=v1.0.0".
//
//nolint:gochecknoglobals // linker-injected build metadata
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Info describes a build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the running build's information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders "v1.2.3 (commit: abc1234, built: 2024-01-15)", filling
// unknown fields with placeholders.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)",
		orDefault(NormalizeVersion(i.Version), "dev"),
		orDefault(i.Commit, "unknown"),
		orDefault(i.Date, "unknown"))
}

// NormalizeVersion trims whitespace and ensures a leading "v" on
// dotted release versions. Anything else, such as a commit hash, is
// returned trimmed.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	if v[0] >= '0' && v[0] <= '9' && strings.Contains(v, ".") {
		return "v" + v
	}
	return v
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
