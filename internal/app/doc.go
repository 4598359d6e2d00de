// Package app wires and runs the report server.
//
// NewApplication opens the SQLite store written by the ETL pipeline,
// initializes telemetry, builds the services and mounts them on a chi
// router:
//
//	GET /api/health
//	GET /api/banks?min_metric=150&limit=10
//	GET /metrics
//
// Run blocks until SIGINT or SIGTERM and then shuts the server down,
// closing the store and flushing telemetry.
package app
