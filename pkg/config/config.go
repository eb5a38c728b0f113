// Package config resolves client settings from the environment, an optional
// YAML file, and built-in defaults, in that order of precedence.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"

	"github.com/agentops-ai/agentops-go/pkg/env"
)

// Environment variables read by Load.
const (
	EnvAPIKey           = "AGENTOPS_API_KEY"
	EnvEndpoint         = "AGENTOPS_API_ENDPOINT"
	EnvMaxWaitTime      = "AGENTOPS_MAX_WAIT_TIME" // milliseconds
	EnvMaxQueueSize     = "AGENTOPS_MAX_QUEUE_SIZE"
	EnvRequestTimeout   = "AGENTOPS_REQUEST_TIMEOUT"
	EnvShutdownTimeout  = "AGENTOPS_SHUTDOWN_TIMEOUT"
	EnvMaxRetries       = "AGENTOPS_MAX_RETRIES"
	EnvTags             = "AGENTOPS_TAGS"
	EnvAutoStartSession = "AGENTOPS_AUTO_START_SESSION"
	EnvLoggingToFile    = "AGENTOPS_LOGGING_TO_FILE"
	EnvDashboardURL     = "AGENTOPS_DASHBOARD_URL"
	EnvConfigFile       = "AGENTOPS_CONFIG_FILE"
)

const (
	DefaultEndpoint     = "https://api.agentops.ai"
	DefaultDashboardURL = "https://app.agentops.ai/drilldown"
)

// Config holds everything the client needs. It is read once at construction
// and never reloaded.
type Config struct {
	APIKey   string
	Endpoint string

	// MaxWaitTime is the longest an event waits in the queue before a flush.
	MaxWaitTime time.Duration
	// MaxQueueSize is the queue length that triggers an immediate flush.
	MaxQueueSize int

	// RequestTimeout bounds each collector call, retries included.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds the final flush and session end at exit.
	ShutdownTimeout time.Duration
	// MaxRetries is the number of attempts for a retryable request.
	MaxRetries int

	Tags             []string
	AutoStartSession bool
	LoggingToFile    bool
	DashboardURL     string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Endpoint:         DefaultEndpoint,
		MaxWaitTime:      time.Second,
		MaxQueueSize:     100,
		RequestTimeout:   10 * time.Second,
		ShutdownTimeout:  5 * time.Second,
		MaxRetries:       3,
		AutoStartSession: true,
		DashboardURL:     DefaultDashboardURL,
	}
}

// Enabled reports whether events can be sent at all.
func (c *Config) Enabled() bool {
	return c.APIKey != ""
}

// Load builds a Config from defaults, the file named by AGENTOPS_CONFIG_FILE
// if any, and environment values from provider.
func Load(ctx context.Context, provider env.Provider) (Config, error) {
	cfg := Default()

	path, err := provider.GetEnv(ctx, EnvConfigFile)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(ctx, provider); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every setting that is out of range. A missing API key is
// not an error: the client then runs disabled.
func (c *Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("endpoint %q must be an absolute http(s) URL", c.Endpoint))
	}
	if c.MaxWaitTime <= 0 {
		result = multierror.Append(result, fmt.Errorf("max wait time must be positive, got %s", c.MaxWaitTime))
	}
	if c.MaxQueueSize < 1 {
		result = multierror.Append(result, fmt.Errorf("max queue size must be at least 1, got %d", c.MaxQueueSize))
	}
	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if c.MaxRetries < 1 {
		result = multierror.Append(result, fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries))
	}

	return result.ErrorOrNil()
}

// fileConfig is the YAML layout of a config file.
type fileConfig struct {
	APIKey           string   `yaml:"api_key"`
	Endpoint         string   `yaml:"endpoint"`
	MaxWaitTimeMs    *int     `yaml:"max_wait_time_ms"`
	MaxQueueSize     *int     `yaml:"max_queue_size"`
	RequestTimeout   string   `yaml:"request_timeout"`
	ShutdownTimeout  string   `yaml:"shutdown_timeout"`
	MaxRetries       *int     `yaml:"max_retries"`
	Tags             []string `yaml:"tags"`
	AutoStartSession *bool    `yaml:"auto_start_session"`
	LoggingToFile    *bool    `yaml:"logging_to_file"`
	DashboardURL     string   `yaml:"dashboard_url"`
}

// MergeFile overlays the settings present in the YAML file at path.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config file %s\n%s", path, yaml.FormatError(err, false, true))
	}

	if file.APIKey != "" {
		c.APIKey = file.APIKey
	}
	if file.Endpoint != "" {
		c.Endpoint = strings.TrimRight(file.Endpoint, "/")
	}
	if file.MaxWaitTimeMs != nil {
		c.MaxWaitTime = time.Duration(*file.MaxWaitTimeMs) * time.Millisecond
	}
	if file.MaxQueueSize != nil {
		c.MaxQueueSize = *file.MaxQueueSize
	}
	if file.RequestTimeout != "" {
		if c.RequestTimeout, err = time.ParseDuration(file.RequestTimeout); err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
	}
	if file.ShutdownTimeout != "" {
		if c.ShutdownTimeout, err = time.ParseDuration(file.ShutdownTimeout); err != nil {
			return fmt.Errorf("shutdown_timeout: %w", err)
		}
	}
	if file.MaxRetries != nil {
		c.MaxRetries = *file.MaxRetries
	}
	if file.Tags != nil {
		c.Tags = file.Tags
	}
	if file.AutoStartSession != nil {
		c.AutoStartSession = *file.AutoStartSession
	}
	if file.LoggingToFile != nil {
		c.LoggingToFile = *file.LoggingToFile
	}
	if file.DashboardURL != "" {
		c.DashboardURL = file.DashboardURL
	}
	return nil
}

func (c *Config) mergeEnv(ctx context.Context, provider env.Provider) error {
	var result *multierror.Error

	apply := func(name string, set func(string) error) {
		value, err := provider.GetEnv(ctx, name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("reading %s: %w", name, err))
			return
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if err := set(value); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}

	apply(EnvAPIKey, func(v string) error { c.APIKey = v; return nil })
	apply(EnvEndpoint, func(v string) error { c.Endpoint = strings.TrimRight(v, "/"); return nil })
	apply(EnvMaxWaitTime, func(v string) error {
		ms, err := strconv.Atoi(v)
		c.MaxWaitTime = time.Duration(ms) * time.Millisecond
		return err
	})
	apply(EnvMaxQueueSize, func(v string) (err error) { c.MaxQueueSize, err = strconv.Atoi(v); return err })
	apply(EnvRequestTimeout, func(v string) (err error) { c.RequestTimeout, err = time.ParseDuration(v); return err })
	apply(EnvShutdownTimeout, func(v string) (err error) { c.ShutdownTimeout, err = time.ParseDuration(v); return err })
	apply(EnvMaxRetries, func(v string) (err error) { c.MaxRetries, err = strconv.Atoi(v); return err })
	apply(EnvTags, func(v string) error { c.Tags = splitTags(v); return nil })
	apply(EnvAutoStartSession, func(v string) (err error) { c.AutoStartSession, err = strconv.ParseBool(v); return err })
	apply(EnvLoggingToFile, func(v string) (err error) { c.LoggingToFile, err = strconv.ParseBool(v); return err })
	apply(EnvDashboardURL, func(v string) error { c.DashboardURL = v; return nil })

	return result.ErrorOrNil()
}

func splitTags(value string) []string {
	var tags []string
	for tag := range strings.SplitSeq(value, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
