package version

// Version and Commit are overridden at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)
