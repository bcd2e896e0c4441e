package version

import (
	"runtime/debug"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		commit string
		dirty  bool
		want   string
	}{
		{"", false, "0.9.0"},
		{"", true, "0.9.0"},
		{"abc", false, "0.9.0 (abc)"},
		{"deadbeefcafe", false, "0.9.0 (deadbee)"},
		{"deadbeefcafe", true, "0.9.0 (deadbee-dirty)"},
	}
	for _, tt := range tests {
		if got := describe("0.9.0", tt.commit, tt.dirty); got != tt.want {
			t.Errorf("describe(%q, %v) = %q, want %q", tt.commit, tt.dirty, got, tt.want)
		}
	}
}

func TestString_FallsBackToBuildInfo(t *testing.T) {
	origVersion, origCommit, origRead := Version, Commit, readBuildInfo
	t.Cleanup(func() { Version, Commit, readBuildInfo = origVersion, origCommit, origRead })

	Version, Commit = "1.2.3", ""
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		}}, true
	}
	if got := String(); got != "1.2.3 (0123456-dirty)" {
		t.Errorf("String() = %q", got)
	}

	Commit = "fedcba9876"
	if got := String(); got != "1.2.3 (fedcba9)" {
		t.Errorf("String() with linked commit = %q", got)
	}

	Commit = ""
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	if got := String(); got != "1.2.3" {
		t.Errorf("String() without build info = %q", got)
	}
}
