// Package config provides configuration loading for the banks ETL and the
// report server.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in order of
// increasing precedence:
//
//	1. Built-in defaults (Default)
//	2. A YAML file (config.yaml, configs/config.yaml or an explicit path)
//	3. Environment variables prefixed with BANKS_
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	BANKS_SOURCE_KIND=file
//	BANKS_SOURCE_LOCATION=./testdata/banks.html
//	BANKS_PIPELINE_CURRENCIES=GBP,EUR,INR
//	BANKS_STORE_PATH=Banks.db
//	BANKS_LOGGING_LEVEL=debug
//
// The loaded struct is validated with go-playground/validator before use.
// Relative paths are resolved with Paths.ResolveConfig.
package config
