// Package fileutil provides filesystem helpers for the extraction pipeline:
// recursive directory scanning with extension classification and batching,
// and path canonicalization.
package fileutil
