package seqlock

import "golang.org/x/mod/semver"

// Version is the current release.
const Version = "v0.1.0"

// Info describes this build of the package.
type Info struct {
	// Version is the release string.
	Version string

	// Major is the semver major component, e.g. "v0".
	Major string

	// Protocol names the synchronization scheme.
	Protocol string

	// Valid reports whether Version is a well-formed semantic version.
	Valid bool
}

// GetInfo returns version information.
//
// Example:
//
//	info := seqlock.GetInfo()
//	fmt.Printf("seqlock %s (%s)\n", info.Version, info.Protocol)
func GetInfo() Info {
	return Info{
		Version:  semver.Canonical(Version),
		Major:    semver.Major(Version),
		Protocol: "sequence lock, 2-bit lock flag + 30-bit version",
		Valid:    semver.IsValid(Version),
	}
}
