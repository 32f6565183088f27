// Package config loads AiPowerHouse settings from built-in defaults, an
// optional TOML file and the environment, in that order of precedence.
//
// Example aipowerhouse.toml:
//
//	[providers.anthropic]
//	api_key = "sk-ant-..."
//	model = "claude-3-5-sonnet-20240620"
//	timeout = "20s"
//
//	[governance]
//	prompt_firewall = true
//	compliance_mode = "strict"
//
//	[routing]
//	default_strategy = "fallback"
package config
