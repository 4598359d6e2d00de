// Package services implements the read side of the report server.
//
// ReportService turns validated ranking requests into parameterised queries
// against the table the ETL pipeline last wrote, coalescing identical
// concurrent requests with singleflight. HealthService checks that the store
// answers and that the ranking table exists.
//
// Services are transport-agnostic: they take a context and request structs
// from pkg/contracts and return domain errors (ErrTableNotFound, or the
// AppError taxonomy from internal/errors) that handlers map onto HTTP.
package services
