// Package config loads runtime configuration for the uniportal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in .json
//     are read as JSON, .yaml and .yml as YAML.
//  3. Environment: UNIPORTAL_API_URL, UNIPORTAL_TRANSPORT.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the university API
//	-t int      request timeout (seconds)
//	-d string   path of the local SQLite database (":memory:" keeps nothing)
//	-m string   credential transport: bearer or cookie
//	-l string   log level: debug, info, warn, error
//
// # File schema
//
// Timeouts use timex.Duration, so they can be strings like "10s" or integer
// nanoseconds:
//
//	api_url: http://localhost:8000
//	request_timeout: 10s
//	database: /home/me/.config/uniportal/client.db
//	transport: bearer
//	log_level: info
package config
