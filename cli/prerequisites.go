// Package cli validates the external tools the bridge shells out to.
package cli

import (
	"fmt"
	"os/exec"
	"strings"
)

// Prerequisite is an external command the bridge depends on.
type Prerequisite struct {
	Name        string // command looked up in PATH
	Required    bool   // startup fails when a required tool is missing
	Description string
	InstallURL  string
}

// Prerequisites returns the tools claudegram needs. engineBin is the
// configured Claude Code binary, which may be an absolute path.
func Prerequisites(engineBin string) []Prerequisite {
	if engineBin == "" {
		engineBin = "claude"
	}
	return []Prerequisite{
		{
			Name:        engineBin,
			Required:    true,
			Description: "Claude Code CLI",
			InstallURL:  "https://claude.ai/code",
		},
		{
			Name:        "git",
			Required:    false, // only the git menu needs it
			Description: "Git version control",
			InstallURL:  "https://git-scm.com/downloads",
		},
	}
}

// CheckResult holds the outcome of probing one prerequisite.
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string
	Version      string
}

// Check looks the tool up in PATH and probes its version.
func Check(prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path, err := exec.LookPath(prereq.Name)
	if err != nil {
		return result
	}

	result.Found = true
	result.Path = path
	result.Version = probeVersion(prereq.Name)
	return result
}

// ValidateRequired returns an error describing every missing required
// tool, or nil when startup can proceed.
func ValidateRequired(prereqs []Prerequisite) error {
	var missing []string

	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		if result := Check(prereq); !result.Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
				prereq.Name, prereq.Description, prereq.InstallURL))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required CLI tools:\n%s", strings.Join(missing, "\n"))
	}
	return nil
}

// probeVersion returns the first line of the tool's version output.
func probeVersion(name string) string {
	for _, flag := range []string{"--version", "-v", "version"} {
		output, err := exec.Command(name, flag).Output()
		if err != nil {
			continue
		}
		line, _, _ := strings.Cut(string(output), "\n")
		version := strings.TrimSpace(line)
		if len(version) > 100 {
			version = version[:100] + "..."
		}
		return version
	}
	return ""
}
