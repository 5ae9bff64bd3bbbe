// Package config loads configuration structs from environment variables.
//
// A .env file in the working directory is loaded once, if present, before
// the first parse. Struct fields declare their sources with env tags:
//
//	type Config struct {
//	    APIKey  string        `env:"MAILKIT_API_KEY,required"`
//	    BaseURL string        `env:"MAILKIT_BASE_URL" envDefault:"https://api.resend.com"`
//	    Timeout time.Duration `env:"MAILKIT_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
//
// API credentials and webhook signing secrets are process-wide values with
// no in-process mutation after startup; rotation happens by supplying
// overlapping-valid secrets, not by reloading.
package config
