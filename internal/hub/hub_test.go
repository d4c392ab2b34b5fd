package hub

import (
	"testing"

	"github.com/clusterwatch/clusterwatch/internal/metrics"
)

type fakeServer struct {
	sent []OutboundMessage
}

func (f *fakeServer) Send(m OutboundMessage) {
	f.sent = append(f.sent, m)
}

func newTestHub() (*Hub, *fakeServer) {
	h := New()
	srv := &fakeServer{}
	h.wsServer = srv
	return h, srv
}

func TestAggregatePushesLatestAndOfflineDefaults(t *testing.T) {
	h, _ := newTestHub()
	h.handle(nodeSpecsMsg{specs: metrics.NodeSpecs{Hostname: "h1", Cpus: 4}})
	h.handle(nodeSpecsMsg{specs: metrics.NodeSpecs{Hostname: "h2", Cpus: 8}})
	h.handle(nodeMetricsMsg{sample: metrics.NodeMetrics{Hostname: "h1", Online: true, Cpu: metrics.CpuMetrics{CpuUsage: 40}}})
	// h2 never reports for this tick.

	h.handle(aggregationTickMsg{})

	set1, ok := h.nodeBuffers.Get("h1")
	if !ok || set1.OneSecond.Len() != 1 {
		t.Fatalf("expected h1's 1s buffer to have one sample")
	}
	last1, _ := set1.OneSecond.Last()
	if !last1.Online || last1.Cpu.CpuUsage != 40 {
		t.Errorf("h1 sample = %+v, want the fresh online sample", last1)
	}

	set2, ok := h.nodeBuffers.Get("h2")
	if !ok || set2.OneSecond.Len() != 1 {
		t.Fatalf("expected h2's 1s buffer to have one sample (offline heartbeat)")
	}
	last2, _ := set2.OneSecond.Last()
	if last2.Online {
		t.Errorf("expected h2's heartbeat sample to be offline")
	}

	if h.clusterSpecs.Cpus != 12 {
		t.Errorf("cluster cpus = %d, want 12", h.clusterSpecs.Cpus)
	}
	if h.clusterBuffer.OneSecond.Len() != 1 {
		t.Fatalf("expected one cluster sample")
	}
	clusterLast, _ := h.clusterBuffer.OneSecond.Last()
	if clusterLast.Cpu.CpuUsage != 20 {
		t.Errorf("cluster cpu_usage = %v, want 20 (mean of 40 and 0)", clusterLast.Cpu.CpuUsage)
	}
}

func TestLatestMetricsCoalescedBetweenTicks(t *testing.T) {
	h, _ := newTestHub()
	h.handle(nodeSpecsMsg{specs: metrics.NodeSpecs{Hostname: "h1"}})
	h.handle(nodeMetricsMsg{sample: metrics.NodeMetrics{Hostname: "h1", Cpu: metrics.CpuMetrics{CpuUsage: 1}}})
	h.handle(nodeMetricsMsg{sample: metrics.NodeMetrics{Hostname: "h1", Cpu: metrics.CpuMetrics{CpuUsage: 2}}})

	h.handle(aggregationTickMsg{})

	set, _ := h.nodeBuffers.Get("h1")
	last, _ := set.OneSecond.Last()
	if last.Cpu.CpuUsage != 2 {
		t.Errorf("expected only the latest sample to survive coalescing, got %v", last.Cpu.CpuUsage)
	}
}

func TestBroadcastSendsNodeAndClusterMessages(t *testing.T) {
	h, srv := newTestHub()
	h.handle(nodeSpecsMsg{specs: metrics.NodeSpecs{Hostname: "h1", Cpus: 2}})
	h.handle(nodeMetricsMsg{sample: metrics.NodeMetrics{Hostname: "h1", Online: true}})
	h.handle(aggregationTickMsg{})

	h.handle(broadcastTickMsg{view: metrics.ViewOneSecond})

	if len(srv.sent) != 2 {
		t.Fatalf("expected 2 outbound messages (node + cluster), got %d", len(srv.sent))
	}
	if srv.sent[0].Payload.Type != TypeNodeMetrics {
		t.Errorf("first message type = %q, want NodeMetrics", srv.sent[0].Payload.Type)
	}
	if srv.sent[1].Payload.Type != TypeClusterMetrics {
		t.Errorf("second message type = %q, want ClusterMetrics", srv.sent[1].Payload.Type)
	}
	for _, msg := range srv.sent {
		if msg.Receiver.Kind != BySubscription || msg.Receiver.View != metrics.ViewOneSecond {
			t.Errorf("receiver = %+v, want SubscribersOf(OneSecond)", msg.Receiver)
		}
	}
}

func TestBackfillSendsCurrentBufferBeforeLiveUpdates(t *testing.T) {
	h, srv := newTestHub()
	h.handle(nodeSpecsMsg{specs: metrics.NodeSpecs{Hostname: "h1", Cpus: 2}})
	for i := 0; i < 3; i++ {
		h.handle(nodeMetricsMsg{sample: metrics.NodeMetrics{Hostname: "h1", Online: true}})
		h.handle(aggregationTickMsg{})
	}

	h.handle(clientJoinedMsg{sessionID: 7, wsServer: srv, subscribeTo: metrics.ViewOneSecond})

	if len(srv.sent) != 2 {
		t.Fatalf("expected a node backfill and a cluster backfill, got %d", len(srv.sent))
	}
	nodeMsg := srv.sent[0]
	if nodeMsg.Receiver.Kind != ByID || nodeMsg.Receiver.SessionID != 7 {
		t.Errorf("receiver = %+v, want Only(7)", nodeMsg.Receiver)
	}
	if len(nodeMsg.Payload.Data) != 3 {
		t.Errorf("backfill data len = %d, want 3 (the full 1s buffer)", len(nodeMsg.Payload.Data))
	}
}
