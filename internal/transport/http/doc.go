// Package http implements the report server's HTTP handlers.
//
// Handlers stay thin: they parse and validate the request, call a service
// interface and render the result with go-chi/render.
//
//	GET /api/health   HealthHandler.HealthCheck
//	GET /api/banks    BanksHandler.List
//	GET /metrics      MetricsHandler
//
// # Error Handling
//
// Errors are rendered as an ErrorResponse envelope:
//
//	{
//	    "success": false,
//	    "error": {
//	        "status_code": 400,
//	        "error_code": "INVALID_PARAMETER",
//	        "message": "Invalid value for min_metric"
//	    }
//	}
//
// Service errors are mapped with errors.Is: a missing ranking table is a
// 404, a validation AppError a 400 and a storage AppError a 503.
//
// # Testing
//
// Handlers are tested with httptest and testify mocks of the service
// interfaces.
package http
