// Package registry owns the worker slot set: one slot per bound credential,
// with enable/ready flags, in-flight counts and cumulative outcome counters.
// All mutation and the snapshot read share a single lock; everything handed
// out of the package is a copy.
package registry
