package logger

import (
	"fmt"
	"strings"
	"sync"
)

// ProgressBar tracks completed work items and renders an ASCII bar.
type ProgressBar struct {
	current int
	total   int
	width   int
	prefix  string
	mu      sync.RWMutex
}

// NewProgressBar creates a progress bar for total items.
func NewProgressBar(total, width int) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{total: total, width: width}
}

// Update sets the current progress value
func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
}

// Increment adds one completed item and returns the new count.
func (pb *ProgressBar) Increment() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current++
	return pb.current
}

// Current returns the current progress value
func (pb *ProgressBar) Current() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.current
}

// Total returns the total progress value
func (pb *ProgressBar) Total() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.total
}

// SetPrefix sets a label shown before the bar.
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// Percentage returns the progress percentage (0-100)
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.percentage()
}

func (pb *ProgressBar) percentage() int {
	if pb.total <= 0 {
		return 0
	}
	perc := (pb.current * 100) / pb.total
	return min(max(perc, 0), 100)
}

// Render formats the bar as "<prefix>[=====     ] 5/10 (50%)".
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	perc := pb.percentage()
	filled := min((perc*pb.width)/100, pb.width)

	var b strings.Builder
	b.WriteString(pb.prefix)
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	b.WriteString(strings.Repeat(" ", pb.width-filled))
	b.WriteByte(']')
	fmt.Fprintf(&b, " %d/%d (%d%%)", pb.current, pb.total, perc)
	return b.String()
}

type progressLogger interface {
	LogProgress(pb *ProgressBar)
}

// LogProgress reports pb through l. Loggers that render progress themselves
// get the bar; any other Logger receives it as an INFO line.
func LogProgress(l Logger, pb *ProgressBar) {
	switch pl := l.(type) {
	case progressLogger:
		pl.LogProgress(pb)
	case multiLogger:
		for _, inner := range pl {
			LogProgress(inner, pb)
		}
	default:
		l.LogInfo(pb.Render())
	}
}
