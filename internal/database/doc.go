// Package database provides SQLite-based storage for run history.
//
// Every completed race is recorded with its path and per-step scores so
// past runs can be listed and inspected later. Persistence is best
// effort: a database failure never affects the run itself.
package database
