package sealfs

import "fmt"

// progressInterval is how many bytes may move between progress log lines.
const progressInterval = 10 * 1024 * 1024

// progressMilestones are the percentage marks logged when the total is known.
var progressMilestones = [...]int{25, 50, 75}

// ProgressTracker logs transfer progress for a single file: one line every
// 10 MiB moved, plus the 25/50/75% milestones when the total size is known
// up front (downloads know it from the header; uploads do not).
// Not safe for concurrent use; track one transfer per instance.
type ProgressTracker struct {
	logger Logger
	name   string
	total  uint64 // 0 when unknown
	moved  uint64
}

// NewProgressTracker creates a tracker for the named file. Pass total 0 when
// the final size is not known in advance.
func NewProgressTracker(logger Logger, name string, total uint64) *ProgressTracker {
	return &ProgressTracker{logger: logger, name: name, total: total}
}

// Add records n more bytes moved and logs when an interval or milestone
// boundary was crossed.
func (t *ProgressTracker) Add(n int) {
	if n <= 0 {
		return
	}
	prev := t.moved
	t.moved += uint64(n)

	if !crossed(prev, t.moved, t.total) {
		return
	}

	if t.total > 0 {
		percent := t.moved * 100 / t.total
		t.logger.Info("transfer progress",
			"file", t.name,
			"moved", FormatBytes(t.moved),
			"total", FormatBytes(t.total),
			"percent", percent,
		)
		return
	}
	t.logger.Info("transfer progress", "file", t.name, "moved", FormatBytes(t.moved))
}

// Done logs the completion line with the final byte count.
func (t *ProgressTracker) Done() {
	t.logger.Info("transfer complete", "file", t.name, "bytes", t.moved)
}

// Moved returns the number of bytes recorded so far.
func (t *ProgressTracker) Moved() uint64 { return t.moved }

// crossed reports whether the step from prev to curr passed a 10 MiB
// interval boundary or, when total is known, a percentage milestone.
func crossed(prev, curr, total uint64) bool {
	if prev/progressInterval != curr/progressInterval {
		return true
	}
	if total == 0 {
		return false
	}
	prevPercent := int(prev * 100 / total)
	currPercent := int(curr * 100 / total)
	for _, m := range progressMilestones {
		if prevPercent < m && currPercent >= m {
			return true
		}
	}
	return false
}

// FormatBytes renders a byte count in human-readable units.
func FormatBytes(n uint64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/(1024*1024*1024))
	}
}
