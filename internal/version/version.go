package version

// Version is overridden at build time with -ldflags "-X beamdeck/internal/version.Version=...".
var Version = "dev"

// Commit is the VCS revision the binary was built from.
var Commit = ""

// Full returns the version string shown by `beamdeck version`.
func Full() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
