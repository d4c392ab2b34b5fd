package metrics

import (
	"strconv"
	"strings"
	"time"
)

// CpuPlugin keeps the previous CpuTimes snapshot and turns the next
// one into percentage metrics.
type CpuPlugin struct {
	last CpuTimes
}

// NewCpuPlugin returns a plugin with a zeroed initial snapshot, so the
// first real sample is diffed against zero and its percentages reflect
// that sample's own cumulative counters.
func NewCpuPlugin() *CpuPlugin {
	return &CpuPlugin{}
}

// Query returns the shell fragment for the CPU family.
func (p *CpuPlugin) Query() string {
	return "grep 'cpu '  /proc/stat"
}

// Apply parses raw and merges the resulting CpuMetrics into m.
func (p *CpuPlugin) Apply(m NodeMetrics, raw string, _ time.Time) NodeMetrics {
	m.Cpu = p.process(raw)
	return m
}

func (p *CpuPlugin) process(raw string) CpuMetrics {
	next := parseCpuTimes(raw)
	diff := next.Sub(p.last)
	p.last = next

	total := diff.Total()
	if total == 0 {
		return CpuMetrics{}
	}

	pct := func(field uint64) float64 {
		return float64(field) / float64(total) * 100
	}

	return CpuMetrics{
		CpuUsage: pct(diff.Work()),
		Iowait:   pct(diff.Iowait),
		User:     pct(diff.User),
		Nice:     pct(diff.Nice),
		System:   pct(diff.System),
		Idle:     pct(diff.Idle),
		Irq:      pct(diff.Irq),
		Softirq:  pct(diff.Softirq),
		Steal:    pct(diff.Steal),
	}
}

// parseCpuTimes tolerantly parses the "cpu  <10 fields>" line. Missing
// fields default to 0; a leading "cpu" label token is dropped.
func parseCpuTimes(raw string) CpuTimes {
	fields := strings.Fields(raw)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "cpu") {
		fields = fields[1:]
	}

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

	return CpuTimes{
		User:      get(0),
		Nice:      get(1),
		System:    get(2),
		Idle:      get(3),
		Iowait:    get(4),
		Irq:       get(5),
		Softirq:   get(6),
		Steal:     get(7),
		Guest:     get(8),
		GuestNice: get(9),
	}
}

// EmptyCpuMetrics is the zero value sent for an offline/default sample.
func EmptyCpuMetrics() CpuMetrics { return CpuMetrics{} }
