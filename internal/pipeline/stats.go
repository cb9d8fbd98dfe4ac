package pipeline

import "sync/atomic"

// Stats provides run counters with thread-safe access. Counter fields use
// atomic operations for safe concurrent updates from worker goroutines; the
// reporter reads a consistent-enough snapshot after each batch barrier.
type Stats struct {
	extracted atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// Extracted returns the number of records successfully extracted.
func (s *Stats) Extracted() int64 { return s.extracted.Load() }

// Skipped returns the number of files deliberately not extracted
// (already resumed, converter unavailable, unrecognized).
func (s *Stats) Skipped() int64 { return s.skipped.Load() }

// Failed returns the number of files whose extraction failed.
func (s *Stats) Failed() int64 { return s.failed.Load() }

// Processed returns the total number of files that went through the
// scheduler.
func (s *Stats) Processed() int64 {
	return s.Extracted() + s.Skipped() + s.Failed()
}

func (s *Stats) addExtracted() { s.extracted.Add(1) }
func (s *Stats) addSkipped()   { s.skipped.Add(1) }
func (s *Stats) addFailed()    { s.failed.Add(1) }
