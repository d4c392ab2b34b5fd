package metrics

// BufferCapacity is the maximum number of samples kept per resolution
// per node.
const BufferCapacity = 120

// rollup cadences, in 1-second ticks.
const (
	ticksPerFiveSecondSample    = 5
	fiveSecondSamplesPerFifteen = 3
	ticksPerFifteenSecondSample = 15
)

// MetricBuffer is a fixed-capacity, insert-at-tail/drop-from-head ring
// of samples for one resolution.
type MetricBuffer struct {
	samples []NodeMetrics
}

// Push appends sample, dropping the oldest entry once the buffer
// would exceed BufferCapacity.
func (b *MetricBuffer) Push(sample NodeMetrics) {
	b.samples = append(b.samples, sample)
	if len(b.samples) > BufferCapacity {
		b.samples = b.samples[len(b.samples)-BufferCapacity:]
	}
}

// Len returns the number of buffered samples.
func (b *MetricBuffer) Len() int { return len(b.samples) }

// Last returns the most recent sample, if any.
func (b *MetricBuffer) Last() (NodeMetrics, bool) {
	if len(b.samples) == 0 {
		return NodeMetrics{}, false
	}
	return b.samples[len(b.samples)-1], true
}

// LastN returns (a copy of) the most recent n samples, oldest first.
// If fewer than n are buffered, all of them are returned.
func (b *MetricBuffer) LastN(n int) []NodeMetrics {
	if n > len(b.samples) {
		n = len(b.samples)
	}
	out := make([]NodeMetrics, n)
	copy(out, b.samples[len(b.samples)-n:])
	return out
}

// All returns a copy of every buffered sample, oldest first.
func (b *MetricBuffer) All() []NodeMetrics {
	return b.LastN(len(b.samples))
}

// NodeBufferSet is the complete per-node (or per-cluster) buffer
// triplet: one MetricBuffer per resolution, plus the tick counters
// that drive the 5× and 15× temporal rollups.
type NodeBufferSet struct {
	OneSecond      MetricBuffer
	FiveSeconds    MetricBuffer
	FifteenSeconds MetricBuffer

	samplesSince5s  int
	samplesSince15s int
}

// Push inserts sample into the 1s buffer and performs the rollups
// described below: every 5th push rolls the last 5
// one-second samples into a 5s sample; every 15th push (i.e. every
// 3rd rollup) rolls the last 3 five-second samples into a 15s sample.
func (s *NodeBufferSet) Push(sample NodeMetrics) {
	s.OneSecond.Push(sample)

	s.samplesSince5s++
	if s.samplesSince5s == ticksPerFiveSecondSample {
		s.FiveSeconds.Push(rollup(s.OneSecond.LastN(ticksPerFiveSecondSample)))
		s.samplesSince5s = 0
	}

	s.samplesSince15s++
	if s.samplesSince15s == ticksPerFifteenSecondSample {
		s.FifteenSeconds.Push(rollup(s.FiveSeconds.LastN(fiveSecondSamplesPerFifteen)))
		s.samplesSince15s = 0
	}
}

// Buffer returns the MetricBuffer for the given resolution.
func (s *NodeBufferSet) Buffer(v View) *MetricBuffer {
	switch v {
	case ViewFiveSeconds:
		return &s.FiveSeconds
	case ViewFifteenSeconds:
		return &s.FifteenSeconds
	default:
		return &s.OneSecond
	}
}

// rollup computes the arithmetic mean of a run of consecutive samples
// from the same node, then carries hostname/online from the most
// recent (last) sample of the run. uptime_seconds is averaged rather
// than carried verbatim.
func rollup(samples []NodeMetrics) NodeMetrics {
	if len(samples) == 0 {
		return NodeMetrics{}
	}
	mean := meanSamples(samples)
	last := samples[len(samples)-1]
	mean.Hostname = last.Hostname
	mean.Online = last.Online
	return mean
}

// AverageAcrossNodes computes the cluster sample for one aggregation
// tick: the elementwise mean of every participating node's latest
// sample, including offline heartbeats.
func AverageAcrossNodes(samples []NodeMetrics) NodeMetrics {
	mean := meanSamples(samples)
	mean.Hostname = "Cluster"
	mean.Online = true
	return mean
}

// meanSamples computes the elementwise arithmetic mean of a run of
// samples: cpu/disk/la/net averaged as float, ram/space/uptime
// averaged as integer. Hostname and Online are left zero-valued for
// the caller to fill in.
func meanSamples(samples []NodeMetrics) NodeMetrics {
	if len(samples) == 0 {
		return NodeMetrics{}
	}

	n := float64(len(samples))
	var (
		cpu                              CpuMetrics
		disk                             DiskMetrics
		la                               LaMetrics
		net                              NetMetrics
		memTotal, memUsed, memBuffers, memCached uint64
		spaceTotal, spaceUsed            uint64
		uptimeSum                        uint64
	)

	for _, s := range samples {
		cpu.CpuUsage += s.Cpu.CpuUsage
		cpu.Iowait += s.Cpu.Iowait
		cpu.User += s.Cpu.User
		cpu.Nice += s.Cpu.Nice
		cpu.System += s.Cpu.System
		cpu.Idle += s.Cpu.Idle
		cpu.Irq += s.Cpu.Irq
		cpu.Softirq += s.Cpu.Softirq
		cpu.Steal += s.Cpu.Steal

		disk.ReadThroughput += s.Disk.ReadThroughput
		disk.WriteThroughput += s.Disk.WriteThroughput

		la.LoadAverage += s.La.LoadAverage

		net.DownBandwidth += s.Net.DownBandwidth
		net.UpBandwidth += s.Net.UpBandwidth

		memTotal += s.Ram.MemTotal
		memUsed += s.Ram.MemUsed
		memBuffers += s.Ram.MemBuffers
		memCached += s.Ram.MemCached

		spaceTotal += s.Space.Total
		spaceUsed += s.Space.Used

		uptimeSum += s.UptimeSeconds
	}

	cpu.CpuUsage /= n
	cpu.Iowait /= n
	cpu.User /= n
	cpu.Nice /= n
	cpu.System /= n
	cpu.Idle /= n
	cpu.Irq /= n
	cpu.Softirq /= n
	cpu.Steal /= n

	disk.ReadThroughput /= n
	disk.WriteThroughput /= n
	la.LoadAverage /= n
	net.DownBandwidth /= n
	net.UpBandwidth /= n

	count := uint64(len(samples))

	return NodeMetrics{
		UptimeSeconds: uptimeSum / count,
		Cpu:           cpu,
		Disk:          disk,
		La:            la,
		Net:           net,
		Ram: RamMetrics{
			MemTotal:   memTotal / count,
			MemUsed:    memUsed / count,
			MemBuffers: memBuffers / count,
			MemCached:  memCached / count,
		},
		Space: SpaceMetrics{
			Total: spaceTotal / count,
			Used:  spaceUsed / count,
		},
	}
}

// MetricBufferMap maps hostname to its per-node NodeBufferSet.
// Hostnames are insertion-created on first sample.
type MetricBufferMap struct {
	nodes map[string]*NodeBufferSet
}

// NewMetricBufferMap returns an empty map.
func NewMetricBufferMap() *MetricBufferMap {
	return &MetricBufferMap{nodes: make(map[string]*NodeBufferSet)}
}

// Push inserts sample into hostname's buffer set, creating it on
// first use.
func (m *MetricBufferMap) Push(hostname string, sample NodeMetrics) {
	m.ensure(hostname).Push(sample)
}

func (m *MetricBufferMap) ensure(hostname string) *NodeBufferSet {
	set, ok := m.nodes[hostname]
	if !ok {
		set = &NodeBufferSet{}
		m.nodes[hostname] = set
	}
	return set
}

// Get returns the buffer set for hostname, if it has ever received a
// sample.
func (m *MetricBufferMap) Get(hostname string) (*NodeBufferSet, bool) {
	set, ok := m.nodes[hostname]
	return set, ok
}

// Hostnames returns every hostname with a buffer set, in no
// particular order.
func (m *MetricBufferMap) Hostnames() []string {
	out := make([]string, 0, len(m.nodes))
	for h := range m.nodes {
		out = append(out, h)
	}
	return out
}
