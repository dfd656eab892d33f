package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	rubix "github.com/RubixML/Client"
)

const envPrefix = "RUBIX"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"host":                "host",
	"port":                "port",
	"secure":              "secure",
	"insecure":            "insecure_skip_verify",
	"timeout":             "timeout",
	"username":            "username",
	"password":            "password",
	"token":               "token",
	"max-retries":         "max_retries",
	"initial-delay":       "initial_delay",
	"max-delay":           "max_delay",
	"circuit-breaker":     "circuit_breaker",
	"failure-threshold":   "failure_threshold",
	"recovery-timeout":    "recovery_timeout",
	"requests-per-second": "requests_per_second",
	"burst":               "burst",
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	verbose    bool
	v          *viper.Viper
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, v: viper.New()}

	root := &cobra.Command{
		Use:   "rubix",
		Short: "Query a Rubix ML inference server",
		Long: `Send a batch of samples to a Rubix ML inference server and print the
result as JSON.

Settings are read from flags, RUBIX_* environment variables and an optional
config file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       rubix.Version,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defaults := rubix.DefaultConfig()
	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml, json or toml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")
	flags.String("host", defaults.Host, "server host")
	flags.Int("port", defaults.Port, "server port")
	flags.Bool("secure", defaults.Secure, "use https")
	flags.Bool("insecure", defaults.InsecureSkipVerify, "skip server certificate verification")
	flags.Duration("timeout", defaults.Timeout, "timeout per attempt, 0 for none")
	flags.String("username", "", "basic auth username")
	flags.String("password", "", "basic auth password")
	flags.String("token", "", "shared bearer token")
	flags.Int("max-retries", defaults.MaxRetries, "retries after a 429 or 503 response")
	flags.Duration("initial-delay", defaults.InitialDelay, "delay before the first retry")
	flags.Duration("max-delay", defaults.MaxDelay, "cap on a single retry delay, 0 for none")
	flags.Bool("circuit-breaker", defaults.CircuitBreaker, "fail fast while the server keeps failing")
	flags.Uint32("failure-threshold", defaults.FailureThreshold, "consecutive failures that open the breaker")
	flags.Duration("recovery-timeout", defaults.RecoveryTimeout, "time the breaker stays open")
	flags.Float64("requests-per-second", defaults.RequestsPerSecond, "client side rate limit, 0 for none")
	flags.Int("burst", defaults.Burst, "rate limit burst")

	root.AddCommand(
		c.queryCmd("predict", "Predict a label or value for each sample", predict),
		c.queryCmd("proba", "Estimate class probabilities for each sample", proba),
		c.queryCmd("score", "Compute an anomaly score for each sample", score),
		c.versionCmd(),
	)
	return root
}

// loadConfig merges defaults, config file, environment and flags.
func (c *cli) loadConfig(flags *pflag.FlagSet) (rubix.Config, error) {
	v := c.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return rubix.Config{}, err
			}
		}
	}

	if c.configFile != "" {
		v.SetConfigFile(c.configFile)
		if err := v.ReadInConfig(); err != nil {
			return rubix.Config{}, err
		}
	}

	var cfg rubix.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return rubix.Config{}, err
	}
	return cfg, nil
}

func (c *cli) newClient(flags *pflag.FlagSet) (*rubix.Client, error) {
	cfg, err := c.loadConfig(flags)
	if err != nil {
		return nil, err
	}

	var opts []rubix.Option
	if c.verbose {
		handler := slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		logger := rubix.NewSlogLogger(slog.New(handler).With("component", "rubix"))
		opts = append(opts, rubix.WithLogger(logger), rubix.WithMiddleware(rubix.Logging(logger)))
	}
	opts = append(opts, rubix.WithMiddleware(rubix.RequestID()))

	return rubix.NewFromConfig(cfg, opts...)
}
