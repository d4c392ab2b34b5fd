package metrics

import (
	"strconv"
	"strings"
	"time"
)

type netCounters struct {
	rxBytes uint64
	txBytes uint64
}

// NetPlugin tracks the previous rx/tx byte counters and the timestamp
// they were taken at, mirroring DiskPlugin's Δcounter/Δt policy.
type NetPlugin struct {
	iface  string
	prev   netCounters
	prevAt time.Time
}

// NewNetPlugin returns a plugin for the given network interface name
// (e.g. "eth0").
func NewNetPlugin(iface string) *NetPlugin {
	return &NetPlugin{iface: iface}
}

// Query returns the shell fragment for the network family: rx_bytes
// on the first line, tx_bytes on the second.
func (p *NetPlugin) Query() string {
	base := "/sys/class/net/" + p.iface + "/statistics/"
	return "cat " + base + "rx_bytes " + base + "tx_bytes"
}

// Apply parses raw and merges the resulting NetMetrics into m.
func (p *NetPlugin) Apply(m NodeMetrics, raw string, ts time.Time) NodeMetrics {
	m.Net = p.process(raw, ts)
	return m
}

func (p *NetPlugin) process(raw string, ts time.Time) NetMetrics {
	next := parseNetCounters(raw)
	deltaSeconds := ts.Sub(p.prevAt).Seconds()

	var down, up float64
	if deltaSeconds > 0 {
		down = float64(subUint64(next.rxBytes, p.prev.rxBytes)) / deltaSeconds
		up = float64(subUint64(next.txBytes, p.prev.txBytes)) / deltaSeconds
	}

	p.prev = next
	p.prevAt = ts

	return NetMetrics{DownBandwidth: down, UpBandwidth: up}
}

func parseNetCounters(raw string) netCounters {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	parse := func(i int) uint64 {
		if i >= len(lines) {
			return 0
		}
		v, err := strconv.ParseUint(strings.TrimSpace(lines[i]), 10, 64)
		if err != nil {
			return 0
		}
		return v
	}
	return netCounters{rxBytes: parse(0), txBytes: parse(1)}
}

// EmptyNetMetrics is the zero value for an offline/default sample.
func EmptyNetMetrics() NetMetrics { return NetMetrics{} }
