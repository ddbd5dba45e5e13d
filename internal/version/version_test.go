package version

import (
	"runtime"
	"testing"

	"github.com/fatih/color"
)

func TestCurrent(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "1.2.3"
	GitCommit = "abc123def456"
	info := Current()
	if info.Version != "1.2.3" || info.GitCommit != "abc123def456" {
		t.Fatalf("Current() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Fatalf("Platform = %q", info.Platform)
	}
}

func TestPretty(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = origVersion, origNoColor }()
	color.NoColor = true

	cases := []struct {
		version string
		want    string
	}{
		{"0.3.0-dev", "0.3.0-dev"},
		{"1.2.3+build.7", "1.2.3+build.7"},
		{"1.2", "1.2"},
		{"nightly", "nightly"},
	}
	for _, tc := range cases {
		Version = tc.version
		if got := Pretty(); got != tc.want {
			t.Errorf("Pretty() with Version %q = %q, want %q", tc.version, got, tc.want)
		}
	}
}
