// Package provider composes one SSH probe with the ordered list of
// metric plugins, issuing one merged command per poll.
package provider

import (
	"log"
	"strings"
	"time"

	"github.com/clusterwatch/clusterwatch/internal/metrics"
	"github.com/clusterwatch/clusterwatch/internal/sshprobe"
)

// sshRunner is the subset of *sshprobe.Probe the provider needs,
// narrowed so tests can substitute a fake.
type sshRunner interface {
	Run(command string) (string, error)
	GetHostname() string
	GetUptime() uint64
}

// Provider runs one physical SSH poll per tick across all plugins and
// assembles their results into a NodeMetrics sample.
type Provider struct {
	ssh     sshRunner
	plugins []metrics.Plugin
	query   string
}

// New composes ssh with plugins, pre-building the merged query string
// once so fragment-to-plugin zipping stays stable across ticks.
func New(ssh *sshprobe.Probe, plugins []metrics.Plugin) *Provider {
	return newProvider(ssh, plugins)
}

func newProvider(ssh sshRunner, plugins []metrics.Plugin) *Provider {
	queries := make([]string, len(plugins))
	for i, p := range plugins {
		queries[i] = p.Query()
	}
	merged := strings.Join(queries, " && printf '"+metrics.Delimiter+"' && ")

	return &Provider{ssh: ssh, plugins: plugins, query: merged}
}

// GetMetrics runs the merged command and dispatches each output
// fragment to its plugin in order. On any SSH error it logs and
// returns a default, Online=false sample.
func (p *Provider) GetMetrics() metrics.NodeMetrics {
	hostname := p.ssh.GetHostname()

	raw, err := p.ssh.Run(p.query)
	if err != nil {
		log.Printf("[%s] poll failed: %v", hostname, err)
		return metrics.OfflineSample(hostname)
	}

	fragments := splitFragments(raw, len(p.plugins))
	now := time.Now()

	sample := metrics.NodeMetrics{Hostname: hostname, Online: true, UptimeSeconds: p.ssh.GetUptime()}
	for i, plugin := range p.plugins {
		if i >= len(fragments) {
			break
		}
		sample = plugin.Apply(sample, fragments[i], now)
	}

	return sample
}

// splitFragments splits raw on the literal delimiter, drops empty
// fragments, and returns at most want entries.
func splitFragments(raw string, want int) []string {
	parts := strings.Split(raw, metrics.Delimiter)
	out := make([]string, 0, want)
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, part)
		if len(out) == want {
			break
		}
	}
	return out
}
