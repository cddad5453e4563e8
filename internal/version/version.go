// Package version carries build identification, overridden at link time:
//
//	go build -ldflags "-X github.com/dastsc/nexus/internal/version.Version=v1.2.0"
package version

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
)
