package config

import (
	"time"

	"bankscli/pkg/contracts"
)

// Application constants
const (
	AppName    = "banks-etl"
	AppVersion = contracts.Version

	// Source document
	DefaultSourceURL   = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"
	DefaultUserAgent   = "banks-etl/1.0"
	DefaultHTTPTimeout = 30 * time.Second

	// Table schema
	DefaultTableName             = "Largest_banks"
	DefaultNameColumn            = "Name"
	DefaultBaseColumn            = "MC_USD_Billion"
	DefaultDerivedColumnTemplate = "MC_{CODE}_Billion"
	CurrencyPlaceholder          = "{CODE}"

	// Diagnostic query
	DefaultQueryThreshold = 150

	// Audit trail
	DefaultAuditLogFile  = "code_log.txt"
	AuditTimestampFormat = "2006-Jan-02-15:04:05"

	// Report server rate limiting
	DefaultRateLimitRPS = 20
	DefaultBurstSize    = 40
)
