// Package validation checks timeline clips before an export and the produced
// file after it.
//
// Clip checks cover file presence, probe success, trim windows and speed
// bounds. Output checks fail only on a missing or undersized file; duration
// drift and zero dimensions are reported as warnings.
package validation
