// Package config loads gatewayprobe configuration from config.yml, .env
// files and environment variables using viper.
//
// Environment variables map onto nested keys by splitting on underscores,
// so GATEWAY_BASE_URL sets gateway.base_url and PROBE_TIMEOUT sets
// probe.timeout. Command-line flags are applied by the CLI after loading.
package config
