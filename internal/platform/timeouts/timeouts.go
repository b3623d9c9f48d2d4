// Package timeouts holds the HTTP server durations shared by the lancerflow
// services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Read bounds reading a full request body.
const Read = 15 * time.Second

// Write bounds a single flow request, including the dice and store writes.
const Write = 30 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight flows
// during graceful shutdown.
const Shutdown = 5 * time.Second
