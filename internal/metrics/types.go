// Package metrics holds the wire types and parsing plugins for one
// remote host's counters: CPU, RAM, load average, disk throughput,
// network bandwidth, and filesystem space.
package metrics

// CpuTimes are the ten nonnegative jiffies counters parsed from the
// "cpu " line of /proc/stat.
type CpuTimes struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	Iowait    uint64
	Irq       uint64
	Softirq   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Work is user+nice+system+irq+softirq+steal. Guest and GuestNice are
// already counted inside User/Nice and must not be added again.
func (c CpuTimes) Work() uint64 {
	return c.User + c.Nice + c.System + c.Irq + c.Softirq + c.Steal
}

// Total is Work + Idle + Iowait.
func (c CpuTimes) Total() uint64 {
	return c.Work() + c.Idle + c.Iowait
}

// Sub returns the elementwise nonnegative difference a-b, clamping any
// field where a counter appears to have wrapped or reset to 0.
func (a CpuTimes) Sub(b CpuTimes) CpuTimes {
	sub := func(x, y uint64) uint64 {
		if x < y {
			return 0
		}
		return x - y
	}
	return CpuTimes{
		User:      sub(a.User, b.User),
		Nice:      sub(a.Nice, b.Nice),
		System:    sub(a.System, b.System),
		Idle:      sub(a.Idle, b.Idle),
		Iowait:    sub(a.Iowait, b.Iowait),
		Irq:       sub(a.Irq, b.Irq),
		Softirq:   sub(a.Softirq, b.Softirq),
		Steal:     sub(a.Steal, b.Steal),
		Guest:     sub(a.Guest, b.Guest),
		GuestNice: sub(a.GuestNice, b.GuestNice),
	}
}

// CpuMetrics is the percentage breakdown derived from a pair of
// consecutive CpuTimes samples. All fields are in [0,100].
type CpuMetrics struct {
	CpuUsage float64 `json:"cpu_usage"`
	Iowait   float64 `json:"iowait"`
	User     float64 `json:"user"`
	Nice     float64 `json:"nice"`
	System   float64 `json:"system"`
	Idle     float64 `json:"idle"`
	Irq      float64 `json:"irq"`
	Softirq  float64 `json:"softirq"`
	Steal    float64 `json:"steal"`
}

// DiskMetrics are byte/second throughputs computed from a sector-count
// delta over a time delta.
type DiskMetrics struct {
	ReadThroughput  float64 `json:"read_throughput"`
	WriteThroughput float64 `json:"write_throughput"`
}

// NetMetrics are byte/second bandwidth figures for one interface.
type NetMetrics struct {
	DownBandwidth float64 `json:"down_bandwidth"`
	UpBandwidth   float64 `json:"up_bandwidth"`
}

// RamMetrics are byte counts read from /proc/meminfo.
type RamMetrics struct {
	MemTotal   uint64 `json:"mem_total"`
	MemUsed    uint64 `json:"mem_used"`
	MemBuffers uint64 `json:"mem_buffers"`
	MemCached  uint64 `json:"mem_cached"`
}

// LaMetrics is the 1-minute load average from /proc/loadavg.
type LaMetrics struct {
	LoadAverage float64 `json:"load_average"`
}

// SpaceMetrics are 1K-block totals as reported by `df`.
type SpaceMetrics struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

// NodeSpecs rarely changes once announced; it identifies a node.
type NodeSpecs struct {
	Index    uint8  `json:"index"`
	Hostname string `json:"hostname"`
	Cpus     uint16 `json:"cpus"`
	Ip       string `json:"ip"`
}

// NodeMetrics is one sample for one node (or the synthetic "Cluster"
// pseudo-node).
type NodeMetrics struct {
	Hostname      string       `json:"hostname"`
	Online        bool         `json:"online"`
	UptimeSeconds uint64       `json:"uptime_seconds"`
	Cpu           CpuMetrics   `json:"cpu"`
	Disk          DiskMetrics  `json:"disk"`
	La            LaMetrics    `json:"la"`
	Net           NetMetrics   `json:"net"`
	Ram           RamMetrics   `json:"ram"`
	Space         SpaceMetrics `json:"space"`
}

// OfflineSample returns the default, Online=false sample sent whenever
// a poll fails or a node has not reported in an aggregation tick.
func OfflineSample(hostname string) NodeMetrics {
	return NodeMetrics{Hostname: hostname, Online: false}
}

// Node is the flattened, client-facing form of one specs+metrics pair.
type Node struct {
	Index         uint8        `json:"index"`
	Hostname      string       `json:"hostname"`
	Cpus          uint16       `json:"cpus"`
	Ip            string       `json:"ip"`
	Online        bool         `json:"online"`
	UptimeSeconds uint64       `json:"uptime_seconds"`
	Cpu           CpuMetrics   `json:"cpu"`
	Disk          DiskMetrics  `json:"disk"`
	La            LaMetrics    `json:"la"`
	Net           NetMetrics   `json:"net"`
	Ram           RamMetrics   `json:"ram"`
	Space         SpaceMetrics `json:"space"`
}

// NewNode flattens specs and one sample into the client wire shape.
func NewNode(specs NodeSpecs, m NodeMetrics) Node {
	return Node{
		Index:         specs.Index,
		Hostname:      specs.Hostname,
		Cpus:          specs.Cpus,
		Ip:            specs.Ip,
		Online:        m.Online,
		UptimeSeconds: m.UptimeSeconds,
		Cpu:           m.Cpu,
		Disk:          m.Disk,
		La:            m.La,
		Net:           m.Net,
		Ram:           m.Ram,
		Space:         m.Space,
	}
}

// ClusterSpecs is the identifying record for the synthetic cluster
// pseudo-node, whose Cpus field is the sum of all configured nodes'.
func ClusterSpecs() NodeSpecs {
	return NodeSpecs{Hostname: "Cluster"}
}
