// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	original := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = original })
}

func withLinkerValues(t *testing.T, commit, dirty string) {
	t.Helper()
	originalCommit, originalDirty := GitCommit, GitDirty
	GitCommit, GitDirty = commit, dirty
	t.Cleanup(func() { GitCommit, GitDirty = originalCommit, originalDirty })
}

func TestInfo_LinkerValues(t *testing.T) {
	withLinkerValues(t, "abc1234", "true")
	withBuildInfo(t, nil)

	got := Info()
	if !strings.Contains(got, "(abc1234-dirty, ") {
		t.Errorf("Info() = %q, want dirty linker commit", got)
	}
	if !strings.HasPrefix(got, Version+" ") {
		t.Errorf("Info() = %q, want version prefix %q", got, Version)
	}
}

func TestCommit_FallsBackToBuildInfo(t *testing.T) {
	withLinkerValues(t, "unknown", "false")
	withBuildInfo(t, &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
	}})

	if got := Commit(); got != "0123456" {
		t.Errorf("Commit() = %q, want 0123456", got)
	}
	if got := Info(); !strings.Contains(got, "0123456-dirty") {
		t.Errorf("Info() = %q, want build info revision marked dirty", got)
	}
}

func TestCommit_NoRevisionAnywhere(t *testing.T) {
	withLinkerValues(t, "unknown", "false")
	withBuildInfo(t, &debug.BuildInfo{})

	if got := Commit(); got != "unknown" {
		t.Errorf("Commit() = %q, want unknown", got)
	}
}

func TestFull_NamesTheBinary(t *testing.T) {
	got := Full()
	if !strings.HasPrefix(got, "termdrift ") {
		t.Errorf("Full() = %q", got)
	}
	for _, fragment := range []string{"\n  Go: ", "\n  Platform: "} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Full() missing %q: %q", fragment, got)
		}
	}
}
