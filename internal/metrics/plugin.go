package metrics

import "time"

// Delimiter separates the fragments of a merged, single-SSH-round-trip
// poll command. None of the probed files can contain this literal.
const Delimiter = "######"

// Plugin is a pure transformer: it owns the previous raw snapshot for
// one metric family and turns a new raw text sample into a typed
// metric, stored inside NodeMetrics by Provider.
//
// Plugins are stateful across calls (they hold the previous sample for
// delta computation) but never touch anything outside their own
// receiver, matching the invariant that no component reaches into
// another's state.
type Plugin interface {
	// Query returns the shell fragment that produces this plugin's
	// raw input when run on the remote host.
	Query() string
	// Apply converts raw text plus a wall-clock timestamp into this
	// plugin's contribution to a NodeMetrics, merging it with m and
	// returning the updated value.
	Apply(m NodeMetrics, raw string, ts time.Time) NodeMetrics
}

// DefaultPlugins returns the six plugins in the fixed, stable order
// the merged command and fragment-zip rely on: cpu, ram, la, disk,
// net, space. disk/net/filesystem identify the per-server block
// device, network interface, and df target.
func DefaultPlugins(disk, networkInterface, filesystem string) []Plugin {
	return []Plugin{
		NewCpuPlugin(),
		NewRamPlugin(),
		NewLaPlugin(),
		NewDiskPlugin(disk),
		NewNetPlugin(networkInterface),
		NewSpacePlugin(filesystem),
	}
}
