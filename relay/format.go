package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/claudegram/claudegram/runner"
)

// FormatResult renders a successful invocation as reply text, with a
// cost/turns/duration trailer when the engine reported them.
func FormatResult(res *runner.Result) string {
	if res.Text == "" {
		return "(done - no output)"
	}

	var meta []string
	if res.CostUSD > 0 {
		meta = append(meta, fmt.Sprintf("$%.4f", res.CostUSD))
	}
	if res.NumTurns > 0 {
		meta = append(meta, fmt.Sprintf("%d turn(s)", res.NumTurns))
	}
	if res.DurationMS > 0 {
		meta = append(meta, fmt.Sprintf("%.1fs", float64(res.DurationMS)/1000))
	}

	if len(meta) == 0 {
		return res.Text
	}
	return res.Text + "\n[" + strings.Join(meta, " | ") + "]"
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
