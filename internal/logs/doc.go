// Package logs locates and tails the per-export log files the exporter
// writes under <log_dir>/exports.
//
// Reads are bounded: Last keeps a ring of the trailing lines and ReadFrom
// only consumes complete lines, so a follower polling a file that is still
// being written never splits a record. Follow polls until its context ends or
// the caller's stop predicate reports the writer is gone.
package logs
