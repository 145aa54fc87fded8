package metrics

// Config provides environment-based configuration for metrics.
type Config struct {
	// Namespace prefixes every metric name.
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"rpgconsent"`
	// Path is where the Prometheus handler is mounted.
	Path string `env:"METRICS_PATH" envDefault:"/metrics"`
	// Buckets are the request duration histogram buckets in seconds.
	Buckets []float64 `env:"METRICS_BUCKETS" envSeparator:","`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Namespace: "rpgconsent",
		Path:      "/metrics",
	}
}
