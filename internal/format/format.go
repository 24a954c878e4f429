// Package format converts byte counts, transfer speeds, and remaining-time
// estimates into human-readable strings for presentation layers. All
// functions degrade to defensive defaults on absent or invalid input and
// never fail.
package format

import (
	"fmt"
	"math"
	"strconv"
)

var units = [...]string{"Bytes", "KB", "MB", "GB", "TB"}

// Bytes converts a byte count into a human-readable string using 1024-based
// units, e.g. Bytes(1048576) == "1 MB". Zero or negative counts yield
// "0 Bytes".
func Bytes(b int64) string {
	if b <= 0 {
		return "0 Bytes"
	}
	return humanize(float64(b))
}

// Speed converts a transfer rate in bytes per second into a human-readable
// string, e.g. Speed(1536) == "1.5 KB/s". Absent, zero, or invalid rates
// yield "0 B/s".
func Speed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 || math.IsNaN(bytesPerSecond) || math.IsInf(bytesPerSecond, 0) {
		return "0 B/s"
	}
	return humanize(bytesPerSecond) + "/s"
}

// ETA converts a remaining-time estimate in seconds into a compact string:
// "45s", "3m 20s", or "1h 15m". Absent, zero, or negative estimates yield
// "calculating...".
func ETA(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "calculating..."
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", int(math.Round(seconds)))
	}
	if seconds < 3600 {
		mins := int(seconds) / 60
		secs := int(math.Round(math.Mod(seconds, 60)))
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(seconds) / 3600
	mins := (int(seconds) % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// humanize renders v with at most two decimal places and trailing zeros
// trimmed, matching "1 MB" rather than "1.00 MB".
func humanize(v float64) string {
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}
