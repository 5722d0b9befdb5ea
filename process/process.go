// Package process provides utilities for discovering, inspecting, and
// cleaning up Claude CLI engine processes.
package process

import (
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/claudegram/claudegram/logger"
)

// EngineProcess represents a running Claude CLI process found on the system.
type EngineProcess struct {
	PID     int    // Process ID
	Command string // Full command line
}

// FindEngineProcesses finds all running Claude CLI print-mode processes on the
// system. This is useful for detecting orphaned processes that may have been
// left behind after a crash.
func FindEngineProcesses() ([]EngineProcess, error) {
	var processes []EngineProcess
	log := logger.WithComponent("process")

	switch runtime.GOOS {
	case "darwin", "linux":
		// Use pgrep to find claude print-mode processes
		cmd := exec.Command("pgrep", "-f", "claude.*--output-format")
		output, err := cmd.Output()
		if err != nil {
			// pgrep returns exit code 1 if no processes found
			if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
				return processes, nil
			}
			return nil, err
		}

		pids := strings.Fields(string(output))
		for _, pidStr := range pids {
			pid, err := strconv.Atoi(strings.TrimSpace(pidStr))
			if err != nil {
				continue
			}

			// Get the full command line for this PID
			psCmd := exec.Command("ps", "-p", pidStr, "-o", "args=")
			psOutput, err := psCmd.Output()
			if err != nil {
				continue
			}

			processes = append(processes, EngineProcess{
				PID:     pid,
				Command: strings.TrimSpace(string(psOutput)),
			})
		}

	case "windows":
		// Use tasklist on Windows
		cmd := exec.Command("tasklist", "/FI", "IMAGENAME eq claude*", "/FO", "CSV", "/NH")
		output, err := cmd.Output()
		if err != nil {
			return nil, err
		}

		lines := strings.Split(string(output), "\n")
		for _, line := range lines {
			fields := strings.Split(line, ",")
			if len(fields) >= 2 {
				// Remove quotes from PID field
				pidStr := strings.Trim(strings.TrimSpace(fields[1]), "\"")
				pid, err := strconv.Atoi(pidStr)
				if err != nil {
					continue
				}
				processes = append(processes, EngineProcess{
					PID:     pid,
					Command: strings.Trim(fields[0], "\""),
				})
			}
		}
	}

	log.Debug("found engine processes", "count", len(processes))
	return processes, nil
}

// KillProcess kills a process by PID.
func KillProcess(pid int) error {
	switch runtime.GOOS {
	case "darwin", "linux":
		cmd := exec.Command("kill", "-9", strconv.Itoa(pid))
		return cmd.Run()
	case "windows":
		cmd := exec.Command("taskkill", "/F", "/PID", strconv.Itoa(pid))
		return cmd.Run()
	}
	return nil
}

// FindOrphanedEngineProcesses finds engine processes whose resumption token is
// not in the provided set of known tokens. Processes with no token on their
// command line are also reported as orphans, since the bridge never leaves
// a fresh invocation behind on a clean shutdown.
func FindOrphanedEngineProcesses(knownTokens map[string]bool) ([]EngineProcess, error) {
	allProcesses, err := FindEngineProcesses()
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("process")
	var orphans []EngineProcess
	for _, proc := range allProcesses {
		token := extractResumeToken(proc.Command)
		if token == "" || !knownTokens[token] {
			orphans = append(orphans, proc)
			log.Info("found orphaned engine process", "pid", proc.PID, "token", token)
		}
	}

	return orphans, nil
}

// extractResumeToken extracts the resumption token from a Claude CLI command line.
func extractResumeToken(cmdLine string) string {
	// Look for --resume or --session-id followed by the token
	patterns := []string{"--resume", "--session-id"}
	for _, pattern := range patterns {
		_, after, ok := strings.Cut(cmdLine, pattern)
		if !ok {
			continue
		}

		// Get the part after the flag
		rest := after
		rest = strings.TrimLeft(rest, " =")

		// Extract the token (first space-separated field)
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// CleanupOrphanedProcesses kills all engine processes that don't match known
// resumption tokens. Returns the number of processes killed.
func CleanupOrphanedProcesses(knownTokens map[string]bool) (int, error) {
	orphans, err := FindOrphanedEngineProcesses(knownTokens)
	if err != nil {
		return 0, err
	}

	log := logger.WithComponent("process")
	killed := 0
	for _, proc := range orphans {
		log.Info("killing orphaned engine process", "pid", proc.PID)
		if err := KillProcess(proc.PID); err != nil {
			log.Error("failed to kill process", "pid", proc.PID, "error", err)
			continue
		}
		killed++
	}

	return killed, nil
}
