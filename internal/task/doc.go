// Package task implements the background task runner used for vocabulary
// generation. Tasks are persisted before execution so that queued work
// survives process restarts; a worker pool drains the in-memory queue,
// retries transient failures with exponential backoff, and a monitor resets
// tasks stuck in processing.
package task
