package rubix

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the declarative form of a client, suitable for loading from a
// file or the environment.
type Config struct {
	Host    string        `mapstructure:"host" validate:"required,hostname_rfc1123|ip"`
	Port    int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	Secure  bool          `mapstructure:"secure"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// InsecureSkipVerify turns off certificate verification on a secure
	// client. The zero value keeps verification on.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token" validate:"excluded_with=Username"`

	MaxRetries   int           `mapstructure:"max_retries" validate:"gte=0"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay" validate:"gte=0"`

	CircuitBreaker   bool          `mapstructure:"circuit_breaker"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout" validate:"gte=0"`

	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// DefaultConfig returns the settings used when a field is not configured.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8000,
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		Burst:        1,
	}
}

var configValidator = validator.New()

// Validate checks the configuration without building anything.
func (cfg Config) Validate() error {
	if err := configValidator.Struct(cfg); err != nil {
		return configurationError("invalid configuration", err)
	}
	return nil
}

// middleware builds the auth, retry, circuit breaker and throttle layers
// the configuration asks for, innermost first.
func (cfg Config) middleware(logger Logger, metrics *MetricsCollector) ([]Middleware, error) {
	var chain []Middleware

	switch {
	case cfg.Token != "":
		auth, err := NewSharedTokenAuthenticator(cfg.Token)
		if err != nil {
			return nil, err
		}
		chain = append(chain, auth)
	case cfg.Username != "":
		auth, err := NewBasicAuthenticator(cfg.Username, cfg.Password)
		if err != nil {
			return nil, err
		}
		chain = append(chain, auth)
	}

	if cfg.MaxRetries > 0 {
		retry, err := NewBackoffAndRetry(cfg.MaxRetries, cfg.InitialDelay,
			RetryWithLogger(logger),
			RetryWithMetrics(metrics),
			RetryWithMaxDelay(cfg.MaxDelay),
		)
		if err != nil {
			return nil, err
		}
		chain = append(chain, retry)
	}

	if cfg.CircuitBreaker {
		chain = append(chain, NewCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			RecoveryTimeout:  cfg.RecoveryTimeout,
		}, logger, metrics))
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		throttle, err := NewThrottle(cfg.RequestsPerSecond, burst, metrics)
		if err != nil {
			return nil, err
		}
		chain = append(chain, throttle)
	}

	return chain, nil
}

// NewFromConfig validates cfg and builds a client with the middleware it
// describes. Middleware passed through opts wraps the configured layers.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := newClient(cfg.Host, cfg.Port)
	c.secure = cfg.Secure
	c.verifyCertificate = !cfg.InsecureSkipVerify
	c.timeout = cfg.Timeout
	c.timeoutSet = cfg.Timeout > 0
	for _, opt := range opts {
		opt(c)
	}

	configured, err := cfg.middleware(c.logger, c.metrics)
	if err != nil {
		return nil, err
	}
	c.middleware = append(configured, c.middleware...)

	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}
