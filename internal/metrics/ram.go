package metrics

import (
	"strconv"
	"strings"
	"time"
)

// RamPlugin is stateless: RAM byte counts need no previous sample.
type RamPlugin struct{}

// NewRamPlugin returns a RAM plugin.
func NewRamPlugin() *RamPlugin { return &RamPlugin{} }

// Query returns the shell fragment for the RAM family.
func (p *RamPlugin) Query() string { return "cat /proc/meminfo" }

// Apply parses raw and merges the resulting RamMetrics into m.
func (p *RamPlugin) Apply(m NodeMetrics, raw string, _ time.Time) NodeMetrics {
	m.Ram = parseMeminfo(raw)
	return m
}

var meminfoKeys = map[string]bool{
	"MemTotal":     true,
	"MemFree":      true,
	"Buffers":      true,
	"Cached":       true,
	"Shmem":        true,
	"SReclaimable": true,
}

// parseMeminfo tokenizes /proc/meminfo by newline, colon, or space,
// drops empty tokens and the "kB" unit, and reads the whitelisted
// keys as 2-wide (key, value) windows. Unknown keys are ignored;
// missing keys default to 0.
func parseMeminfo(raw string) RamMetrics {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ':' || r == ' ' || r == '\t'
	})

	values := make(map[string]uint64, len(meminfoKeys))
	for i := 0; i+1 < len(tokens); i++ {
		key := tokens[i]
		if !meminfoKeys[key] {
			continue
		}
		if _, seen := values[key]; seen {
			continue
		}
		v, err := strconv.ParseUint(tokens[i+1], 10, 64)
		if err != nil {
			continue
		}
		values[key] = v
	}

	kb := func(key string) uint64 { return values[key] }

	memCachedEffectiveKb := subUint64(kb("Cached")+kb("SReclaimable"), kb("Shmem"))
	memUsedKb := subUint64(subUint64(subUint64(kb("MemTotal"), kb("MemFree")), kb("Buffers")), memCachedEffectiveKb)

	return RamMetrics{
		MemTotal:   kb("MemTotal") * 1024,
		MemUsed:    memUsedKb * 1024,
		MemBuffers: kb("Buffers") * 1024,
		MemCached:  memCachedEffectiveKb * 1024,
	}
}

// EmptyRamMetrics is the zero value for an offline/default sample.
func EmptyRamMetrics() RamMetrics { return RamMetrics{} }
