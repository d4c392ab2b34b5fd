package metrics

import "testing"

const sampleMeminfo = `MemTotal:       16256332 kB
MemFree:         6890464 kB
Buffers:          536332 kB
Cached:          3729760 kB
SwapCached:            0 kB
Shmem:             73864 kB
SReclaimable:     391760 kB
SUnreclaim:       210000 kB`

func TestParseMeminfo(t *testing.T) {
	m := parseMeminfo(sampleMeminfo)

	wantCachedKb := uint64(3729760 + 391760 - 73864)
	wantUsedKb := uint64(16256332 - 6890464 - 536332) - wantCachedKb

	if m.MemCached != wantCachedKb*1024 {
		t.Errorf("mem_cached = %v, want %v", m.MemCached, wantCachedKb*1024)
	}
	if m.MemUsed != wantUsedKb*1024 {
		t.Errorf("mem_used = %v, want %v", m.MemUsed, wantUsedKb*1024)
	}
	if m.MemTotal != 16256332*1024 {
		t.Errorf("mem_total = %v, want %v", m.MemTotal, 16256332*1024)
	}
	if m.MemBuffers != 536332*1024 {
		t.Errorf("mem_buffers = %v, want %v", m.MemBuffers, 536332*1024)
	}
}

func TestParseMeminfoMissingFieldsDefaultToZero(t *testing.T) {
	m := parseMeminfo("MemTotal: 1000 kB")
	if m.MemTotal != 1000*1024 {
		t.Fatalf("mem_total = %v, want %v", m.MemTotal, 1000*1024)
	}
	if m.MemUsed != 1000*1024 {
		t.Fatalf("mem_used = %v, want %v (missing fields default to 0)", m.MemUsed, 1000*1024)
	}
}
