// Package config handles configuration loading for hookpanel.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The format is chosen by file extension: ".toml" is decoded as
// TOML, anything else as YAML.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from HOOKPANEL_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/hookpanel/config.yaml (or ~/.config/hookpanel/config.yaml)
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${HOOKPANEL_JWT_SECRET}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8065"
//
//	database:
//	  path: "/var/lib/hookpanel/settings.db"
//
//	auth:
//	  jwt_secret: "${HOOKPANEL_JWT_SECRET}"  # at least 32 bytes
//	  token_ttl: "24h"
//
//	console:
//	  base_url: "https://chat.example.com"   # used to print webhook URLs
//	  plugin_id: "com.zentavr.pingdom"
//	  setting_id: "PingdomHooksConfigs"
//	  draft_ttl: "30m"
//	  max_drafts: 256
//
//	matrix:
//	  enabled: false
//	  homeserver: "https://matrix.example.com"
//	  user_id: "@pingdombot:example.com"
//	  access_token: "${MATRIX_TOKEN}"
//	  server_name: "example.com"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() applies defaults and then validates:
//
//   - Database path presence
//   - JWT secret minimum length (32 bytes)
//   - Duration format validity
//   - Base URL and homeserver URLs
//   - Matrix credentials when matrix is enabled
package config
