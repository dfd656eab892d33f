package rubix

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build metadata. GitCommit and BuildDate may be set with -ldflags -X; when
// left unset they are read from the VCS stamp of the main module.
var (
	Version   = "2.1.0"
	GitCommit = ""
	BuildDate = ""
	GoVersion = runtime.Version()
)

// UserAgent is sent with every request.
func UserAgent() string {
	return "Rubix ML Client/" + Version
}

// GetVersion returns the version line printed by the CLI.
func GetVersion() string {
	commit, built := buildStamp()
	return fmt.Sprintf("Rubix ML Client v%s (commit: %s, built: %s, go: %s)",
		Version, commit, built, GoVersion)
}

func buildStamp() (commit, built string) {
	commit, built = GitCommit, BuildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && built == "":
				built = s.Value
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return commit, built
}
