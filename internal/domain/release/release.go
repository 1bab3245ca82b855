package release

import (
	"fmt"
	"strings"
)

// Family is a KDE release stream with its own mirror layout.
type Family string

// DefaultBaseURL is the canonical KDE download host.
const DefaultBaseURL = "https://download.kde.org"

const (
	// Applications is the release-service family, selected by "/applications/" in a URL.
	Applications Family = "applications"
	// Frameworks is the KDE Frameworks family, selected by "/frameworks/" in a URL.
	Frameworks Family = "frameworks"

	// portingAidsSegment marks the frameworks porting-aid variant.
	portingAidsSegment = "portingAids"

	// unstableSuffix marks beta versions of release-service.
	unstableSuffix = ".90"

	// tarballExtension is appended to every artifact name.
	tarballExtension = ".tar.xz"
)

// Versions holds the target version of each family.
type Versions struct {
	// Applications is the release-service version, e.g. "24.08.1".
	Applications string
	// Frameworks is the KDE Frameworks version, e.g. "6.5.0".
	Frameworks string
}

// For returns the target version for family.
func (v Versions) For(family Family) string {
	if family == Frameworks {
		return v.Frameworks
	}

	return v.Applications
}

// Classify derives the family from a source's current URL.
// Applications wins when both markers are present. The second result is false
// for URLs outside both families.
func Classify(url string) (Family, bool) {
	switch {
	case strings.Contains(url, "/applications/"):
		return Applications, true
	case strings.Contains(url, "/frameworks/"):
		return Frameworks, true
	default:
		return "", false
	}
}

// IsPortingAid reports whether url points at a frameworks porting-aid tarball.
func IsPortingAid(url string) bool {
	return strings.Contains(url, portingAidsSegment)
}

// ShortVersion returns the major.minor prefix of version.
// Versions with fewer components are returned unchanged.
func ShortVersion(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}

	return strings.Join(parts, ".")
}

// Stream returns "unstable" for .90 pre-releases and "stable" otherwise.
func Stream(version string) string {
	if strings.HasSuffix(version, unstableSuffix) {
		return "unstable"
	}

	return "stable"
}

// BuildURL returns the tarball URL of module name at version under base.
// portingAids is only meaningful for Frameworks. Malformed versions still
// produce a URL; the download is what fails for them.
func BuildURL(base string, family Family, name, version string, portingAids bool) string {
	base = strings.TrimRight(base, "/")
	artifact := name + "-" + version + tarballExtension

	if family == Frameworks {
		dir := fmt.Sprintf("%s/stable/frameworks/%s", base, ShortVersion(version))
		if portingAids {
			dir += "/" + portingAidsSegment
		}

		return dir + "/" + artifact
	}

	return fmt.Sprintf("%s/%s/release-service/%s/src/%s", base, Stream(version), version, artifact)
}
