// Package generation defines the boundary between the application core and
// the external language model: the Generator interface implemented by the
// gemini platform package, and the Client that wraps it with response
// caching, per-user rate limiting and cost tracking.
package generation
