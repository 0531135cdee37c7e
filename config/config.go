// Package config loads MediaStoreConfig manifests and assembles the media
// subsystem from them.
//
// Manifests are YAML files in K8s-style format: apiVersion, kind, metadata
// and a spec section. The spec is validated against an embedded JSON schema
// before parsing, and an optional semver compatibility constraint is checked
// against the running MediaKit version. Assemble turns a parsed manifest
// into a wired Store with its fetcher, task pool, event bus, reference
// directory, janitor, metrics exporter and tracer provider.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// APIVersion is the Kubernetes-style API version for MediaKit configs.
	APIVersion = "mediakit.altairalabs.ai/v1alpha1"

	// Kind is the manifest kind accepted by this package.
	Kind = "MediaStoreConfig"
)

// Config represents a YAML store configuration file in K8s-style manifest format.
type Config struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   metav1.ObjectMeta `yaml:"metadata,omitempty"`
	Spec       StoreSpec         `yaml:"spec"`
}

// StoreSpec contains the actual store configuration.
type StoreSpec struct {
	// BaseDir is the directory holding metadata/ and files/.
	BaseDir string `yaml:"base_dir"`
	// Compatibility is an optional semver constraint on the runtime version,
	// e.g. ">= 1.0.0, < 2.0.0".
	Compatibility string         `yaml:"compatibility,omitempty"`
	Fetch         *FetchSpec     `yaml:"fetch,omitempty"`
	Pool          *PoolSpec      `yaml:"pool,omitempty"`
	Directory     *DirectorySpec `yaml:"directory,omitempty"`
	Janitor       *JanitorSpec   `yaml:"janitor,omitempty"`
	Metrics       *MetricsSpec   `yaml:"metrics,omitempty"`
	Tracing       *TracingSpec   `yaml:"tracing,omitempty"`
}

// FetchSpec configures the content fetcher. Zero values keep the defaults.
type FetchSpec struct {
	TimeoutSeconds int            `yaml:"timeout_seconds,omitempty"`
	MaxSizeBytes   int64          `yaml:"max_size_bytes,omitempty"`
	RateLimit      *RateLimitSpec `yaml:"rate_limit,omitempty"`
}

// RateLimitSpec caps outgoing fetch requests.
type RateLimitSpec struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst,omitempty"`
}

// PoolSpec configures the background task pool. Zero values keep the defaults.
type PoolSpec struct {
	MaxConcurrent          int `yaml:"max_concurrent,omitempty"`
	TaskTimeoutSeconds     int `yaml:"task_timeout_seconds,omitempty"`
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds,omitempty"`
}

// DirectorySpec selects the reference directory backend.
type DirectorySpec struct {
	// Backend is "memory" or "redis". Empty means memory.
	Backend string     `yaml:"backend"`
	Redis   *RedisSpec `yaml:"redis,omitempty"`
}

// RedisSpec configures the Redis-backed reference directory.
type RedisSpec struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds,omitempty"`
}

// JanitorSpec schedules unreferenced-media sweeps.
type JanitorSpec struct {
	// Schedule is cron syntax or @every form, e.g. "@every 10m".
	Schedule            string `yaml:"schedule"`
	SweepTimeoutSeconds int    `yaml:"sweep_timeout_seconds,omitempty"`
}

// MetricsSpec enables the Prometheus exporter.
type MetricsSpec struct {
	Enabled bool `yaml:"enabled"`
	// Addr is the listen address for /metrics, default ":9090".
	Addr string `yaml:"addr,omitempty"`
}

// TracingSpec enables OTLP trace export.
type TracingSpec struct {
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP/HTTP collector URL.
	Endpoint string `yaml:"endpoint,omitempty"`
	// ServiceName overrides the default service name "mediakit".
	ServiceName string `yaml:"service_name,omitempty"`
}

// ParseConfig parses a MediaStoreConfig manifest from raw YAML.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate manifest format
	if config.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if config.Kind != Kind {
		return nil, fmt.Errorf("invalid kind: expected '%s', got '%s'", Kind, config.Kind)
	}
	if config.Metadata.Name == "" {
		return nil, fmt.Errorf("missing required field: metadata.name")
	}
	if config.Spec.BaseDir == "" {
		return nil, fmt.Errorf("missing required field: spec.base_dir")
	}

	return &config, nil
}

// LoadConfig loads and validates a manifest from a YAML file. The manifest
// is checked against the JSON schema first, then parsed, then its
// compatibility constraint is checked against the runtime version.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := ValidateManifestStrict(data); err != nil {
		return nil, err
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	if err := CheckCompatibility(config.Spec.Compatibility); err != nil {
		return nil, err
	}

	return config, nil
}
