package metrics

import (
	"strconv"
	"strings"
	"time"
)

// SpacePlugin is stateless.
type SpacePlugin struct {
	filesystem string
}

// NewSpacePlugin returns a plugin for the given df target (e.g.
// "sda1", probed as /dev/sda1).
func NewSpacePlugin(filesystem string) *SpacePlugin {
	return &SpacePlugin{filesystem: filesystem}
}

// Query returns the shell fragment for the space family.
func (p *SpacePlugin) Query() string {
	return "df /dev/" + p.filesystem
}

// Apply parses raw and merges the resulting SpaceMetrics into m.
func (p *SpacePlugin) Apply(m NodeMetrics, raw string, _ time.Time) NodeMetrics {
	m.Space = parseDf(raw)
	return m
}

// parseDf reads the last non-empty line of `df` output: column 1 is
// the total in 1K-blocks, column 3 is available; used = total -
// available.
func parseDf(raw string) SpaceMetrics {
	lines := strings.Split(raw, "\n")
	var last string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			last = l
		}
	}
	if last == "" {
		return SpaceMetrics{}
	}

	fields := strings.Fields(last)
	get := func(i int) uint64 {
		if i >= len(fields) {
			return 0
		}
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return 0
		}
		return v
	}

	total := get(1)
	available := get(3)
	return SpaceMetrics{Total: total, Used: subUint64(total, available)}
}

// EmptySpaceMetrics is the zero value for an offline/default sample.
func EmptySpaceMetrics() SpaceMetrics { return SpaceMetrics{} }
