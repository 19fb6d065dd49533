// Package strategy defines the slot selection interface and implements the
// available algorithms:
//
//   - Round Robin: visits every eligible slot once before repeating
//   - Random: uniform selection, no memory between calls
//   - Least Connections: fewest in-flight leases, earliest-selected tie-break
//
// Strategies decide on registry snapshots only and fail with
// ErrNoEligibleSlot when nothing is enabled and ready.
package strategy
