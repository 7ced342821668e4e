// Package pipeline implements the Request Pipeline (spec §4.7): a bounded
// worker pool draining a bounded request queue, per-request UUID
// identifiers and monitoring spans, request-scoped temp-file lifecycle for
// uploaded audio, and the orchestration of the audio/intent/dialogue/
// response stages behind a single per-session serialization lock (spec §5).
//
// The worker slot is a [golang.org/x/sync/semaphore.Weighted], the same
// primitive theRebelliousNerd-codenerd's internal/core/api_scheduler.go uses
// for its API-call slot scheduling — acquired with a deadline derived from
// the request timeout, so a request that waits too long for a slot fails
// with [errs.KindTimeout] exactly the way that scheduler's AcquireAPISlot
// turns a cancelled wait into an error.
package pipeline

import (
	"os"
	"time"
)

// Config tunes the pipeline's concurrency and timeout limits; all fields
// have spec-mandated defaults applied by [New] when left zero.
type Config struct {
	// Workers bounds how many requests run concurrently. Default 10.
	Workers int

	// QueueCapacity bounds how many requests may be queued or running at
	// once; submissions beyond this are rejected immediately. Default 100.
	QueueCapacity int

	// RequestTimeout bounds how long a request may wait for a worker slot
	// before failing with TIMEOUT_ERROR. Default 30s.
	RequestTimeout time.Duration

	// TempDir is where uploaded audio is staged for the duration of one
	// request. Default os.TempDir().
	TempDir string
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 10
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	return c
}
