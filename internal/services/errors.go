package services

import "errors"

// Report service errors
var (
	ErrTableNotFound = errors.New("ranking table not found")
	ErrStoreClosed   = errors.New("store is not available")
)
