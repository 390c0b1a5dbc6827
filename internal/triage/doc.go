// Package triage is the deterministic decision engine. Decide maps a vitals
// record to a priority, a score, ordered reasons and an ABCDE summary. It is
// pure: no I/O, no clock, no shared state, and the same vitals always yield
// the same result.
package triage
