package metrics

import "testing"

func TestNodeBufferSetCapacity(t *testing.T) {
	var set NodeBufferSet
	for i := 0; i < BufferCapacity+50; i++ {
		set.Push(NodeMetrics{Hostname: "h1"})
	}
	if set.OneSecond.Len() != BufferCapacity {
		t.Fatalf("1s buffer len = %d, want %d", set.OneSecond.Len(), BufferCapacity)
	}
}

func TestNodeBufferSetRollup(t *testing.T) {
	var set NodeBufferSet
	for i := 1; i <= 15; i++ {
		set.Push(NodeMetrics{Hostname: "h1", La: LaMetrics{LoadAverage: float64(i)}})
	}

	if set.OneSecond.Len() != 15 {
		t.Fatalf("1s buffer len = %d, want 15", set.OneSecond.Len())
	}
	if set.FiveSeconds.Len() != 3 {
		t.Fatalf("5s buffer len = %d, want 3", set.FiveSeconds.Len())
	}
	if set.FifteenSeconds.Len() != 1 {
		t.Fatalf("15s buffer len = %d, want 1", set.FifteenSeconds.Len())
	}

	fives := set.FiveSeconds.All()
	want := []float64{3, 8, 13}
	for i, v := range want {
		if fives[i].La.LoadAverage != v {
			t.Errorf("5s sample %d load_average = %v, want %v", i, fives[i].La.LoadAverage, v)
		}
	}

	fifteen, ok := set.FifteenSeconds.Last()
	if !ok {
		t.Fatal("expected a 15s sample")
	}
	if fifteen.La.LoadAverage != 8 {
		t.Errorf("15s load_average = %v, want 8", fifteen.La.LoadAverage)
	}
}

func TestRollupLengthsAfterNTicks(t *testing.T) {
	var set NodeBufferSet
	const n = 300
	for i := 0; i < n; i++ {
		set.Push(NodeMetrics{Hostname: "h1"})
	}
	if got, want := set.FiveSeconds.Len(), min(n/5, BufferCapacity); got != want {
		t.Errorf("5s len = %d, want %d", got, want)
	}
	if got, want := set.FifteenSeconds.Len(), min(n/15, BufferCapacity); got != want {
		t.Errorf("15s len = %d, want %d", got, want)
	}
}

func TestRollupAveragesUptimeSeconds(t *testing.T) {
	var set NodeBufferSet
	for i := 1; i <= 5; i++ {
		set.Push(NodeMetrics{Hostname: "h1", UptimeSeconds: uint64(i) * 10})
	}
	sample, ok := set.FiveSeconds.Last()
	if !ok {
		t.Fatal("expected a 5s sample")
	}
	// mean of {10,20,30,40,50} = 30
	if sample.UptimeSeconds != 30 {
		t.Errorf("uptime_seconds = %v, want 30 (averaged, not summed)", sample.UptimeSeconds)
	}
}

func TestAverageAcrossNodes(t *testing.T) {
	samples := []NodeMetrics{
		{Hostname: "h1", Online: true, Cpu: CpuMetrics{CpuUsage: 10}, UptimeSeconds: 100},
		{Hostname: "h2", Online: false, Cpu: CpuMetrics{CpuUsage: 30}, UptimeSeconds: 0},
	}
	avg := AverageAcrossNodes(samples)

	if avg.Hostname != "Cluster" {
		t.Fatalf("hostname = %q, want Cluster", avg.Hostname)
	}
	if avg.Cpu.CpuUsage != 20 {
		t.Errorf("cpu_usage = %v, want 20 (mean of 10 and 30, including the offline node)", avg.Cpu.CpuUsage)
	}
	if avg.UptimeSeconds != 50 {
		t.Errorf("uptime_seconds = %v, want 50", avg.UptimeSeconds)
	}
}

func TestMetricBufferMapInsertionCreated(t *testing.T) {
	m := NewMetricBufferMap()
	if _, ok := m.Get("h1"); ok {
		t.Fatal("expected no buffer set before first sample")
	}
	m.Push("h1", NodeMetrics{Hostname: "h1"})
	set, ok := m.Get("h1")
	if !ok || set.OneSecond.Len() != 1 {
		t.Fatalf("expected buffer set created on first sample")
	}
}
