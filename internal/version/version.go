// Package version reports which overdoc build is running. Release builds set
// the fields with -ldflags "-X overdoc/internal/version.Version=1.0.0
// -X overdoc/internal/version.Commit=abc123"; other builds read the commit
// from the VCS stamp the go command embeds.
package version

import "runtime/debug"

var (
	// Version is the release recorded in reports and snapshots.
	Version = "0.3.0"

	// Commit is the source revision, empty when not set at link time.
	Commit = ""
)

var readBuildInfo = debug.ReadBuildInfo

// String is the text printed by --version.
func String() string {
	commit, dirty := Commit, false
	if commit == "" {
		commit, dirty = vcsRevision()
	}
	return describe(Version, commit, dirty)
}

func describe(v, commit string, dirty bool) string {
	if commit == "" {
		return v
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if dirty {
		commit += "-dirty"
	}
	return v + " (" + commit + ")"
}

func vcsRevision() (revision string, modified bool) {
	info, ok := readBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	return revision, modified
}
