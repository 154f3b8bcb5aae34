// Package config loads runtime configuration for the expense-tracker CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables (EXPENSE_API_URL, EXPENSE_SESSION_DB,
//     EXPENSE_REQUEST_TIMEOUT, EXPENSE_LOG_LEVEL).
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the expense API
//	-d string   path to the local session database
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:5000/api",
//	  "session_db_path": "expensetrack.db",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
package config
