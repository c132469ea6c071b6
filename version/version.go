// Package version exists solely so that we can store the version of this application
// in one location, despite needing it in more than one place.
//
// Duplicating the version number/tag in several places is a recipe for drift and
// confusion, so this package is the result.
package version

import "fmt"

var (
	// version is populated with our release tag, via a Github Action.
	version = "unreleased"
)

// GetVersionBanner returns a banner which is suitable for printing, to show our name,
// version, and homepage link.
func GetVersionBanner() string {

	str := fmt.Sprintf("rshield %s\n%s\n", version, "https://github.com/retrosys/rshield/")
	return str
}

// GetVersionString returns our version number as a string.
func GetVersionString() string {
	return version
}
