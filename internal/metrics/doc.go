// Package metrics collects per-slot lease, outcome and failover counters
// through a buffered event channel, keeping bookkeeping off the dispatch
// path. Snapshots include lease hold time percentiles per slot.
package metrics
