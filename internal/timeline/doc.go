// Package timeline defines clips, export settings and the ordering rules that
// turn an editor timeline into a deterministic render order.
//
// Normalize sorts clips by (start, track, id), reports uncovered intervals as
// gaps and computes the expected output duration. Timeline documents can be
// loaded from JSON or YAML.
package timeline
