// Package failover rotates a slot whose credential is exhausted onto the
// next spare credential: mark not ready, one pick attempt, rebind. Slots
// with no spare stay cooling until a rescan or the next failure event.
package failover
