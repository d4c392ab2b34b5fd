package metrics

import (
	"encoding/json"
	"testing"
)

func TestNodeMetricsJSONRoundTrip(t *testing.T) {
	want := NodeMetrics{
		Hostname:      "host1.example",
		Online:        true,
		UptimeSeconds: 12345,
		Cpu:           CpuMetrics{CpuUsage: 12.35, Iowait: 0.02},
		Disk:          DiskMetrics{ReadThroughput: 1593344, WriteThroughput: 909312},
		La:            LaMetrics{LoadAverage: 0.42},
		Net:           NetMetrics{DownBandwidth: 12084, UpBandwidth: 8192},
		Ram:           RamMetrics{MemTotal: 16 << 30, MemUsed: 8 << 30},
		Space:         SpaceMetrics{Total: 20514332, Used: 9276332},
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got NodeMetrics
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestNodeSpecsJSONRoundTrip(t *testing.T) {
	want := NodeSpecs{Index: 2, Hostname: "host1.example", Cpus: 8, Ip: "10.0.0.5"}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got NodeSpecs
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestNodeJSONRoundTrip(t *testing.T) {
	specs := NodeSpecs{Index: 1, Hostname: "host1.example", Cpus: 4, Ip: "10.0.0.1"}
	sample := NodeMetrics{Hostname: "host1.example", Online: true, UptimeSeconds: 99}
	want := NewNode(specs, sample)

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got Node
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestOfflineSamplePreservesHostname(t *testing.T) {
	s := OfflineSample("host2.example")
	if s.Online {
		t.Fatal("expected Online=false")
	}
	if s.Hostname != "host2.example" {
		t.Fatalf("hostname = %q, want host2.example", s.Hostname)
	}
}
