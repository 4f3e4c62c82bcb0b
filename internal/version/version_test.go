package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stamp(t *testing.T, version, commit, built string) {
	t.Helper()
	oldVersion, oldCommit, oldBuilt := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = oldVersion, oldCommit, oldBuilt
	})
	Version, GitCommit, BuildTime = version, commit, built
}

func TestStampedBuildInfo(t *testing.T) {
	stamp(t, "v1.2.0", "0123456789abcdef", "2026-03-01T10:00:00Z")

	info := GetBuildInfo()
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Contains(t, info.Platform, "/")

	assert.Equal(t, "v1.2.0 (0123456)", GetShortVersion())

	detailed := GetDetailedVersion()
	assert.True(t, strings.HasPrefix(detailed, "Version: v1.2.0\nCommit: 0123456789abcdef\nBuilt: 2026-03-01T10:00:00Z"))
}

func TestShortVersionWithoutRelease(t *testing.T) {
	stamp(t, "dev", "abcdef0123", "unknown")
	assert.Equal(t, "dev-abcdef0", GetShortVersion())
	assert.NotContains(t, GetDetailedVersion(), "Built:")
}

func TestParseISOTime(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2026-03-01T10:00:00Z", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01T10:00:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01 10:00:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"unknown", time.Time{}},
		{"", time.Time{}},
		{"yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(parseISOTime(tt.input)))
		})
	}
}

func TestIsRelease(t *testing.T) {
	stamp(t, "v0.3.1", "unknown", "unknown")
	assert.True(t, IsRelease())

	Version = "dev"
	assert.Equal(t, GetVersion() != "dev", IsRelease())
}
