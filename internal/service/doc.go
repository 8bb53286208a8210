// Package service contains the application services that orchestrate domain
// logic, persistence and background work. Services own transaction
// boundaries; stores never start transactions themselves.
package service
