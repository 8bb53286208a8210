// Package events decouples request-path services from the background task
// machinery. Services emit TaskRequestEvents describing work they need done
// (vocabulary generation, mostly) without importing the task package, which
// keeps the dependency graph acyclic.
package events
