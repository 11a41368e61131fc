package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		GitCommit = origGitCommit
		BuildDate = origBuildDate
	}()

	Version = "1.0.0"
	GitCommit = "abc123"
	BuildDate = "2026-08-30T12:00:00Z"

	buf := new(bytes.Buffer)
	versionCmd.SetOut(buf)
	versionCmd.Run(versionCmd, nil)

	output := buf.String()

	expectedStrings := []string{
		"Gatherpoint Server",
		"Version:    1.0.0",
		"Git commit: abc123",
		"Build date: 2026-08-30T12:00:00Z",
		"Go version:",
		"Platform:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("expected output to contain %q, got:\n%s", expected, output)
		}
	}
}
