package version

import "runtime/debug"

// Build information, set at build time via ldflags
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// String returns the version, falling back to module build info and then "(devel)"
func String() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// CommitHash returns the short VCS revision, or "unknown"
func CommitHash() string {
	if Commit != "" {
		return Commit
	}
	if value := buildSetting("vcs.revision"); value != "" {
		if len(value) > 7 {
			return value[:7]
		}
		return value
	}
	return "unknown"
}

// BuildDate returns the build or VCS commit time, or "unknown"
func BuildDate() string {
	if Date != "" {
		return Date
	}
	if value := buildSetting("vcs.time"); value != "" {
		return value
	}
	return "unknown"
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
