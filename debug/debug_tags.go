//go:build !debug

package debug

// Debug controls the verbosity of stack traces and enables expensive
// consistency assertions in trace generation.
const Debug = false
