// Package version reports build metadata and checks block server versions.
package version

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Build metadata, set with -ldflags "-X ...".
//
//nolint:gochecknoglobals // Populated by the linker
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// MinServerVersion is the oldest block server release the client speaks to.
const MinServerVersion = "0.4.0"

// ErrServerTooOld is returned when a block server predates MinServerVersion.
var ErrServerTooOld = errors.New("block server version is too old")

// Info is the build description printed by the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current build info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("litebridge %s (commit %s, built %s, %s %s)", i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}

// CheckServer reports whether serverVersion is new enough. Development
// builds of the server are accepted.
func CheckServer(serverVersion string) error {
	v := NormalizeVersion(serverVersion)
	if v == "" || v == "dev" || isCommitHash(v) {
		return nil
	}
	if CompareVersions(v, MinServerVersion) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrServerTooOld, serverVersion, MinServerVersion)
	}
	return nil
}

// CompareVersions returns 1, 0 or -1 as v1 is newer than, equal to or older
// than v2. Development builds and commit hashes sort before any release.
func CompareVersions(v1, v2 string) int {
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	dev1 := v1 == "dev" || v1 == "" || isCommitHash(v1)
	dev2 := v2 == "dev" || v2 == "" || isCommitHash(v2)
	switch {
	case dev1 && dev2:
		return 0
	case dev1:
		return -1
	case dev2:
		return 1
	}

	p1, p2 := parseVersion(v1), parseVersion(v2)
	for i := range 3 {
		a, b := part(p1, i), part(p2, i)
		if a != b {
			if a > b {
				return 1
			}
			return -1
		}
	}
	return 0
}

func part(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// parseVersion returns the numeric components, ignoring suffixes such as
// -rc1 or +build.
func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	fields := strings.Split(version, ".")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		var n int
		if _, err := fmt.Sscanf(f, "%d", &n); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeVersion strips whitespace, leading 'v's and any pre-release or
// build suffix.
func NormalizeVersion(version string) string {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}
	return strings.TrimLeft(strings.TrimSpace(version), "v")
}

// isCommitHash reports whether s looks like a 7 to 40 character hex SHA with
// at least one letter.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	hasLetter := false
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
