// Package hub implements the Metric Hub actor: a singleton that
// buffers per-node time series, derives cluster aggregates, performs
// 5× and 15× temporal rollups, and broadcasts/backfills results to
// the WebSocket server.
package hub

import (
	"context"
	"log"
	"time"

	"github.com/clusterwatch/clusterwatch/internal/metrics"
)

const inboxCapacity = 256

// ServerHandle is the outbound side of the WS Server actor as seen by
// the Hub: a cheap, clonable handle for routed, non-blocking sends.
type ServerHandle interface {
	Send(OutboundMessage)
}

// ReceiverKind discriminates the three OutboundMessage routing modes.
type ReceiverKind int

const (
	Everyone ReceiverKind = iota
	BySubscription
	ByID
)

// Receiver selects which WS sessions an OutboundMessage is delivered
// to.
type Receiver struct {
	Kind      ReceiverKind
	View      metrics.View
	SessionID uint64
}

// ReceiverEveryone addresses every connected session.
func ReceiverEveryone() Receiver { return Receiver{Kind: Everyone} }

// ReceiverSubscribersOf addresses every session subscribed to v.
func ReceiverSubscribersOf(v metrics.View) Receiver {
	return Receiver{Kind: BySubscription, View: v}
}

// ReceiverOnly addresses exactly one session, silently dropped if it
// is no longer connected.
func ReceiverOnly(sessionID uint64) Receiver {
	return Receiver{Kind: ByID, SessionID: sessionID}
}

// Payload is the wire body: {"type": ..., "data": [Node, ...]}.
type Payload struct {
	Type string          `json:"type"`
	Data []metrics.Node `json:"data"`
}

const (
	TypeNodeMetrics    = "NodeMetrics"
	TypeClusterMetrics = "ClusterMetrics"
)

// OutboundMessage is what the Hub sends to the WS Server to route and
// serialize.
type OutboundMessage struct {
	Receiver Receiver
	Payload  Payload
}

// message is the Hub's own inbox tagged union.
type message interface{ isHubMessage() }

type nodeMetricsMsg struct{ sample metrics.NodeMetrics }
type nodeSpecsMsg struct{ specs metrics.NodeSpecs }
type clientJoinedMsg struct {
	sessionID   uint64
	wsServer    ServerHandle
	subscribeTo metrics.View
}
type aggregationTickMsg struct{}
type broadcastTickMsg struct{ view metrics.View }

func (nodeMetricsMsg) isHubMessage() {}
func (nodeSpecsMsg) isHubMessage() {}
func (clientJoinedMsg) isHubMessage() {}
func (aggregationTickMsg) isHubMessage() {}
func (broadcastTickMsg) isHubMessage() {}

// Hub is the Metric Hub actor. All fields are owned exclusively by
// the goroutine running Run; every other caller talks to it only
// through the Send*/Notify* methods below.
type Hub struct {
	inbox chan message

	wsServer ServerHandle

	latestMetrics map[string]metrics.NodeMetrics
	nodeBuffers   *metrics.MetricBufferMap
	clusterBuffer metrics.NodeBufferSet
	nodeSpecs     map[string]metrics.NodeSpecs
	clusterSpecs  metrics.NodeSpecs
}

// New returns a Hub with empty state; call Run to start its actor
// loop and scheduled ticks.
func New() *Hub {
	return &Hub{
		inbox:         make(chan message, inboxCapacity),
		latestMetrics: make(map[string]metrics.NodeMetrics),
		nodeBuffers:   metrics.NewMetricBufferMap(),
		nodeSpecs:     make(map[string]metrics.NodeSpecs),
		clusterSpecs:  metrics.ClusterSpecs(),
	}
}

// SendNodeMetrics is the Node Aggregator's do_send: a non-blocking
// delivery of one sample, dropped with a log line if the inbox is
// saturated rather than blocking the aggregator's poll loop.
func (h *Hub) SendNodeMetrics(sample metrics.NodeMetrics) {
	h.offer(nodeMetricsMsg{sample: sample})
}

// SendNodeSpecs delivers a NodeSpecs announcement.
func (h *Hub) SendNodeSpecs(specs metrics.NodeSpecs) {
	h.offer(nodeSpecsMsg{specs: specs})
}

// NotifyClientJoined is sent by the WS Server when a session updates
// its subscription, triggering a one-shot backfill to that session.
func (h *Hub) NotifyClientJoined(sessionID uint64, wsServer ServerHandle, subscribeTo metrics.View) {
	h.offer(clientJoinedMsg{sessionID: sessionID, wsServer: wsServer, subscribeTo: subscribeTo})
}

func (h *Hub) offer(m message) {
	select {
	case h.inbox <- m:
	default:
		log.Printf("hub: inbox full, dropping %T", m)
	}
}

// Run drives the Hub's message loop and its four scheduled tickers
// (1s aggregation, 1s/5s/15s broadcast) until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	aggregationTicker := time.NewTicker(1 * time.Second)
	defer aggregationTicker.Stop()
	broadcast1s := time.NewTicker(1 * time.Second)
	defer broadcast1s.Stop()
	broadcast5s := time.NewTicker(5 * time.Second)
	defer broadcast5s.Stop()
	broadcast15s := time.NewTicker(15 * time.Second)
	defer broadcast15s.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-aggregationTicker.C:
			h.offer(aggregationTickMsg{})
		case <-broadcast1s.C:
			h.offer(broadcastTickMsg{view: metrics.ViewOneSecond})
		case <-broadcast5s.C:
			h.offer(broadcastTickMsg{view: metrics.ViewFiveSeconds})
		case <-broadcast15s.C:
			h.offer(broadcastTickMsg{view: metrics.ViewFifteenSeconds})
		case m := <-h.inbox:
			h.handle(m)
		}
	}
}

func (h *Hub) handle(m message) {
	switch msg := m.(type) {
	case nodeMetricsMsg:
		h.latestMetrics[msg.sample.Hostname] = msg.sample
	case nodeSpecsMsg:
		h.nodeSpecs[msg.specs.Hostname] = msg.specs
	case clientJoinedMsg:
		h.wsServer = msg.wsServer
		h.backfill(msg.sessionID, msg.subscribeTo)
	case aggregationTickMsg:
		h.aggregate()
	case broadcastTickMsg:
		h.broadcast(msg.view)
	}
}

// aggregate implements the per-second aggregation tick.
func (h *Hub) aggregate() {
	for hostname := range h.nodeSpecs {
		if sample, ok := h.latestMetrics[hostname]; ok {
			h.nodeBuffers.Push(hostname, sample)
			delete(h.latestMetrics, hostname)
		} else {
			h.nodeBuffers.Push(hostname, metrics.OfflineSample(hostname))
		}
	}

	var totalCpus uint16
	participants := make([]metrics.NodeMetrics, 0, len(h.nodeSpecs))
	for hostname, specs := range h.nodeSpecs {
		totalCpus += specs.Cpus
		if set, ok := h.nodeBuffers.Get(hostname); ok {
			if last, ok := set.OneSecond.Last(); ok {
				participants = append(participants, last)
			}
		}
	}
	h.clusterSpecs.Cpus = totalCpus

	if len(participants) == 0 {
		return
	}
	h.clusterBuffer.Push(metrics.AverageAcrossNodes(participants))
}

// broadcast implements the periodic broadcast tick for one
// resolution: every node's latest R-sample, plus the cluster's.
func (h *Hub) broadcast(view metrics.View) {
	if h.wsServer == nil {
		return
	}

	for hostname, specs := range h.nodeSpecs {
		set, ok := h.nodeBuffers.Get(hostname)
		if !ok {
			continue
		}
		sample, ok := set.Buffer(view).Last()
		if !ok {
			continue
		}
		h.wsServer.Send(OutboundMessage{
			Receiver: ReceiverSubscribersOf(view),
			Payload: Payload{
				Type: TypeNodeMetrics,
				Data: []metrics.Node{metrics.NewNode(specs, sample)},
			},
		})
	}

	if sample, ok := h.clusterBuffer.Buffer(view).Last(); ok {
		h.wsServer.Send(OutboundMessage{
			Receiver: ReceiverSubscribersOf(view),
			Payload: Payload{
				Type: TypeClusterMetrics,
				Data: []metrics.Node{metrics.NewNode(h.clusterSpecs, sample)},
			},
		})
	}
}

// backfill implements the one-shot per-client backfill:
// every buffered sample at the requested resolution, per node, then
// the full cluster buffer at that resolution.
func (h *Hub) backfill(sessionID uint64, view metrics.View) {
	if h.wsServer == nil {
		return
	}

	for hostname, specs := range h.nodeSpecs {
		set, ok := h.nodeBuffers.Get(hostname)
		if !ok {
			continue
		}
		samples := set.Buffer(view).All()
		if len(samples) == 0 {
			continue
		}
		nodes := make([]metrics.Node, len(samples))
		for i, s := range samples {
			nodes[i] = metrics.NewNode(specs, s)
		}
		h.wsServer.Send(OutboundMessage{
			Receiver: ReceiverOnly(sessionID),
			Payload:  Payload{Type: TypeNodeMetrics, Data: nodes},
		})
	}

	clusterSamples := h.clusterBuffer.Buffer(view).All()
	if len(clusterSamples) == 0 {
		return
	}
	nodes := make([]metrics.Node, len(clusterSamples))
	for i, s := range clusterSamples {
		nodes[i] = metrics.NewNode(h.clusterSpecs, s)
	}
	h.wsServer.Send(OutboundMessage{
		Receiver: ReceiverOnly(sessionID),
		Payload:  Payload{Type: TypeClusterMetrics, Data: nodes},
	})
}
