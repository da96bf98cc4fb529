// Package proofline holds release metadata shared by the command line tools.
package proofline

import (
	_ "embed"
	"regexp"
	"strings"
)

var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

//go:embed VERSION
var embeddedVersion string

// Version is the release in SemVer form, without the leading v.
func Version() string {
	return strings.TrimSpace(embeddedVersion)
}

// VersionTag is the git tag of the release.
func VersionTag() string {
	return "v" + Version()
}

// IsSemver reports whether v is a SemVer 2.0.0 version.
func IsSemver(v string) bool {
	return semverRE.MatchString(strings.TrimSpace(v))
}
