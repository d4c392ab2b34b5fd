// Package aggregator implements the Node Aggregator actor: one
// instance per configured server, driving that host's SSH probe on a
// fixed schedule and forwarding the results to the hub.
package aggregator

import (
	"context"
	"log"
	"time"

	"github.com/clusterwatch/clusterwatch/internal/metrics"
)

const (
	pollInterval   = 1 * time.Second
	uptimeInterval = 60 * time.Second
	specsRetryWait = 1 * time.Second
	pingCommand    = "true"
)

// hubHandle is the hub as seen by one aggregator: non-blocking sample
// and specs delivery.
type hubHandle interface {
	SendNodeMetrics(metrics.NodeMetrics)
	SendNodeSpecs(metrics.NodeSpecs)
}

// metricsProvider obtains one merged NodeMetrics sample per call.
type metricsProvider interface {
	GetMetrics() metrics.NodeMetrics
}

// sshHandle is the subset of the probe an aggregator drives directly:
// a liveness ping, the specs accessors, and the uptime refresh.
type sshHandle interface {
	Run(command string) (string, error)
	GetHostname() string
	GetIp() string
	GetCpus() uint16
	UpdateUptime() error
}

// Aggregator owns one node's polling schedule.
type Aggregator struct {
	hub      hubHandle
	provider metricsProvider
	ssh      sshHandle
	index    uint8
}

// New returns an Aggregator for one configured server; index is its
// position among the configured servers (0-based).
func New(hub hubHandle, provider metricsProvider, ssh sshHandle, index uint8) *Aggregator {
	return &Aggregator{hub: hub, provider: provider, ssh: ssh, index: index}
}

// Run announces this node's specs (retrying until the host answers),
// then drives the 1-second poll loop and the 60-second uptime refresh
// until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	log.Printf("[%s] Aggregator started", a.ssh.GetHostname())

	if !a.sendSpecs(ctx) {
		return
	}

	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()
	uptimeTicker := time.NewTicker(uptimeInterval)
	defer uptimeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			a.hub.SendNodeMetrics(a.provider.GetMetrics())
		case <-uptimeTicker.C:
			if err := a.ssh.UpdateUptime(); err != nil {
				log.Printf("[%s] uptime refresh failed: %v", a.ssh.GetHostname(), err)
			}
		}
	}
}

// sendSpecs pings the host with a no-op command, retrying once a
// second until it answers, then emits this node's NodeSpecs to the
// hub. It returns false only if ctx is cancelled first.
func (a *Aggregator) sendSpecs(ctx context.Context) bool {
	for {
		if _, err := a.ssh.Run(pingCommand); err == nil {
			a.hub.SendNodeSpecs(metrics.NodeSpecs{
				Index:    a.index + 1,
				Hostname: a.ssh.GetHostname(),
				Cpus:     a.ssh.GetCpus(),
				Ip:       a.ssh.GetIp(),
			})
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(specsRetryWait):
		}
	}
}
