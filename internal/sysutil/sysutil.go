// Package sysutil holds small cross-cutting helpers: log level wiring,
// environment value parsing, and the process stats backing the system and
// runtime commands.
package sysutil

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// startedAt anchors uptime reporting to process start.
var startedAt = time.Now()

// Uptime returns how long the process has been running, truncated to seconds.
func Uptime() time.Duration {
	return time.Since(startedAt).Truncate(time.Second)
}

// FormatUptime renders a duration as "2d 3h 4m 5s", omitting leading zero units.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if days > 0 || hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// RuntimeStats is a point-in-time snapshot of the Go runtime, formatted for
// chat output.
type RuntimeStats struct {
	GoVersion  string
	NumCPU     int
	Goroutines int
	HeapAlloc  uint64
	HeapSys    uint64
	NumGC      uint32
	Uptime     time.Duration
}

// CollectRuntimeStats reads the runtime counters.
func CollectRuntimeStats() RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeStats{
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		NumGC:      ms.NumGC,
		Uptime:     Uptime(),
	}
}

// String renders the snapshot as a multi-line chat message body.
func (s RuntimeStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Go: %s\n", s.GoVersion)
	fmt.Fprintf(&b, "CPUs: %d\n", s.NumCPU)
	fmt.Fprintf(&b, "Goroutines: %d\n", s.Goroutines)
	fmt.Fprintf(&b, "Heap: %s / %s\n", FormatBytes(s.HeapAlloc), FormatBytes(s.HeapSys))
	fmt.Fprintf(&b, "GC cycles: %d\n", s.NumGC)
	fmt.Fprintf(&b, "Uptime: %s", FormatUptime(s.Uptime))
	return b.String()
}
