package internal

// Option adjusts how Run assembles the serve-mode application before
// it starts listening.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies an already loaded and validated configuration.
// Run refuses to start without one.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
