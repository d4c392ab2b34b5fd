package metrics

import (
	"strconv"
	"strings"
	"time"
)

const sectorSize = 512

// diskStats is the subset of /sys/block/<dev>/stat fields needed for
// throughput: sectors read (field 3) and sectors written (field 7).
type diskStats struct {
	sectorsRead    uint64
	sectorsWritten uint64
}

// DiskPlugin tracks the previous sector counts and the timestamp they
// were taken at, so throughput is computed from the caller-supplied
// sample timestamp rather than wall-clock time at parse.
type DiskPlugin struct {
	disk string
	prev diskStats
	// prevAt defaults to the zero time.Time (the Unix epoch's Go
	// analogue), so the first real sample's huge Δt drives throughput
	// to near zero without any special-cased first-sample branch.
	prevAt time.Time
}

// NewDiskPlugin returns a plugin for the given block device basename
// (e.g. "sda").
func NewDiskPlugin(disk string) *DiskPlugin {
	return &DiskPlugin{disk: disk}
}

// Query returns the shell fragment for the disk family.
func (p *DiskPlugin) Query() string {
	return "cat /sys/block/" + p.disk + "/stat"
}

// Apply parses raw and merges the resulting DiskMetrics into m.
func (p *DiskPlugin) Apply(m NodeMetrics, raw string, ts time.Time) NodeMetrics {
	m.Disk = p.process(raw, ts)
	return m
}

func (p *DiskPlugin) process(raw string, ts time.Time) DiskMetrics {
	next := parseDiskStats(raw)
	deltaSeconds := ts.Sub(p.prevAt).Seconds()

	var read, write float64
	if deltaSeconds > 0 {
		read = float64(subUint64(next.sectorsRead, p.prev.sectorsRead)*sectorSize) / deltaSeconds
		write = float64(subUint64(next.sectorsWritten, p.prev.sectorsWritten)*sectorSize) / deltaSeconds
	}

	p.prev = next
	p.prevAt = ts

	return DiskMetrics{ReadThroughput: read, WriteThroughput: write}
}

func parseDiskStats(raw string) diskStats {
	fields := strings.Fields(raw)
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
	return diskStats{
		sectorsRead:    get(2),
		sectorsWritten: get(6),
	}
}

func subUint64(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// EmptyDiskMetrics is the zero value for an offline/default sample.
func EmptyDiskMetrics() DiskMetrics { return DiskMetrics{} }
