package process

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// clockTicksPerSecond is the kernel tick rate used to convert /proc stat
// fields to durations. Linux reports USER_HZ as 100 on all supported
// architectures.
const clockTicksPerSecond = 100

// CPUTime returns the cumulative CPU time (user + system) consumed by the
// process with the given PID. On Linux it reads /proc/<pid>/stat directly;
// elsewhere it shells out to ps.
func CPUTime(pid int) (time.Duration, error) {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
		if err != nil {
			return 0, err
		}
		return parseProcStat(string(data))
	}

	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "time=")
	output, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	return parsePSTime(strings.TrimSpace(string(output)))
}

// parseProcStat extracts utime and stime from a /proc/<pid>/stat line.
// The comm field (2) may contain spaces and parentheses, so fields are
// counted from the last ')'. utime and stime are fields 14 and 15,
// which land at indices 11 and 12 of the remainder.
func parseProcStat(stat string) (time.Duration, error) {
	idx := strings.LastIndex(stat, ")")
	if idx < 0 {
		return 0, fmt.Errorf("malformed stat line: no comm field")
	}

	fields := strings.Fields(stat[idx+1:])
	if len(fields) < 13 {
		return 0, fmt.Errorf("malformed stat line: %d fields after comm", len(fields))
	}

	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed utime %q: %w", fields[11], err)
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed stime %q: %w", fields[12], err)
	}

	ticks := utime + stime
	return time.Duration(ticks) * time.Second / clockTicksPerSecond, nil
}

// parsePSTime parses the cumulative CPU time column from ps output,
// formatted as [[DD-]HH:]MM:SS.
func parsePSTime(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty ps time")
	}

	var days int64
	if before, after, ok := strings.Cut(s, "-"); ok {
		d, err := strconv.ParseInt(before, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed ps time %q: %w", s, err)
		}
		days = d
		s = after
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed ps time %q", s)
	}

	var total int64
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed ps time %q: %w", s, err)
		}
		total = total*60 + n
	}

	return time.Duration(days)*24*time.Hour + time.Duration(total)*time.Second, nil
}
