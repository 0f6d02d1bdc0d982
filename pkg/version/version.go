// Package version reports the build identity of the wikirevs binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "<unknown>"

// Set at link time with -ldflags "-X github.com/Sumatoshi-tech/wikirevs/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

const (
	settingRevision = "vcs.revision"
	settingTime     = "vcs.time"
	shortHashLen    = 12
)

// InitBinaryVersion fills values not set by the linker from the module
// build info embedded by the go tool.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRevision:
			if Commit == unknown {
				Commit = setting.Value[:min(len(setting.Value), shortHashLen)]
			}
		case settingTime:
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("wikirevs %s (commit: %s, built: %s)", Version, Commit, Date)
}

// UserAgent returns the User-Agent sent to MediaWiki, as the Wikimedia
// policy asks for a tool name, version and contact URL.
func UserAgent() string {
	return fmt.Sprintf("wikirevs/%s (https://github.com/Sumatoshi-tech/wikirevs)", Version)
}
