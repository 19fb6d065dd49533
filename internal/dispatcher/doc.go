// Package dispatcher hands out one-shot slot leases for units of work:
// snapshot the registry, let the configured strategy pick, claim the slot,
// and record the reported outcome on release. Credential-exhaustion
// failures are forwarded to the failover handler.
package dispatcher
