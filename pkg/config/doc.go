// Package config loads configuration structs from environment variables
// using caarlos0/env struct tags, with optional .env file support for local
// development via godotenv.
//
// Parsed configs are cached per struct type: the first Load parses the
// environment, later Loads for the same type return the cached copy. This
// keeps configuration stable for the process lifetime even when several
// packages load the same struct.
//
//	var cfg billing.StripeConfig
//	config.MustLoad(&cfg)
//
// Required fields use the `env:"NAME,required"` tag and make Load fail when
// unset, which MustLoad turns into a startup panic.
package config
