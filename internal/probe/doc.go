// Package probe implements the debug probe selector grammar and the probe
// management used to claim a probe for a DUT.
//
// Probes are found by enumerating USB devices through sysfs and claimed by
// opening their usbfs node with an exclusive advisory lock. Releasing the
// lock (Probe.Close) makes the probe available again.
package probe
