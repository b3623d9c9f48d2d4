// Package sqlite provides a SQLite-backed document store for actors and items.
package sqlite
