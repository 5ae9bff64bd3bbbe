package dispatch

import "time"

// Config holds the client's process-wide settings. The API credential is
// fixed at startup; there is no in-process mutation after construction.
type Config struct {
	// APIKey authenticates against the provider API.
	APIKey string `env:"MAILKIT_API_KEY,required"`
	// BaseURL is the provider API root.
	BaseURL string `env:"MAILKIT_BASE_URL" envDefault:"https://api.resend.com"`
	// RequestTimeout bounds every single network attempt. A timed-out
	// attempt is retried like any transport error.
	RequestTimeout time.Duration `env:"MAILKIT_REQUEST_TIMEOUT" envDefault:"10s"`
	// MaxRetries bounds retries after the initial attempt.
	MaxRetries int `env:"MAILKIT_MAX_RETRIES" envDefault:"4"`
	// BatchConcurrency bounds concurrent chunk dispatches per SendBatch
	// call. Kept small to respect the provider's request rate.
	BatchConcurrency int `env:"MAILKIT_BATCH_CONCURRENCY" envDefault:"3"`
}
