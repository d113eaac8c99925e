// Package config handles configuration loading for notify-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults for the realtime
// tuning knobs.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${NOTIFY_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	realtime:
//	  write_timeout: "10s"
//	  ping_interval: "30s"
//
// # Example
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	database:
//	  path: "/var/lib/notify-gateway/notify.db"
//	auth:
//	  jwt_secret: "${NOTIFY_JWT_SECRET}"
//	  token_ttl: "24h"
//	realtime:
//	  send_buffer: 64
//	  max_connections_per_user: 8
//	logging:
//	  level: "info"
//	  format: "json"
package config
