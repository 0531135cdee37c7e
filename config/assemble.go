package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AltairaLabs/MediaKit/events"
	"github.com/AltairaLabs/MediaKit/fetch"
	"github.com/AltairaLabs/MediaKit/media"
	prom "github.com/AltairaLabs/MediaKit/metrics/prometheus"
	"github.com/AltairaLabs/MediaKit/refdir"
	"github.com/AltairaLabs/MediaKit/tasks"
	"github.com/AltairaLabs/MediaKit/telemetry"
)

const (
	defaultMetricsAddr = ":9090"
	defaultServiceName = "mediakit"
)

// Runtime bundles the collaborators assembled from one manifest. Fields for
// disabled components stay nil.
type Runtime struct {
	Store          *media.Store
	Fetcher        *fetch.Fetcher
	Pool           *tasks.Pool
	Bus            *events.EventBus
	Directory      refdir.Directory
	Janitor        *media.Janitor
	Metrics        *prom.Exporter
	TracerProvider *sdktrace.TracerProvider

	redisClient *redis.Client
}

// Assemble builds the media store and its collaborators from a parsed
// manifest. Components are constructed but not started: the caller starts
// the janitor and the metrics exporter when it is ready to serve, and shuts
// everything down through Close.
func Assemble(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := CheckCompatibility(cfg.Spec.Compatibility); err != nil {
		return nil, err
	}

	rt := &Runtime{
		Fetcher: fetch.New(fetchOptions(cfg.Spec.Fetch)...),
		Pool:    tasks.NewPool(poolConfig(cfg.Spec.Pool)),
		Bus:     events.NewEventBus(),
	}

	dir, client, err := buildDirectory(ctx, cfg.Spec.Directory)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Directory = dir
	rt.redisClient = client

	if tr := cfg.Spec.Tracing; tr != nil && tr.Enabled {
		serviceName := tr.ServiceName
		if serviceName == "" {
			serviceName = defaultServiceName
		}
		tp, err := telemetry.NewTracerProvider(ctx, tr.Endpoint, serviceName)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to build tracer provider: %w", err)
		}
		telemetry.SetupPropagation()
		rt.TracerProvider = tp
		rt.Bus.SubscribeAll(telemetry.NewOTelEventListener(telemetry.Tracer(tp)).OnEvent)
	}

	if m := cfg.Spec.Metrics; m != nil && m.Enabled {
		addr := m.Addr
		if addr == "" {
			addr = defaultMetricsAddr
		}
		rt.Metrics = prom.NewExporter(addr)
		rt.Bus.SubscribeAll(prom.NewMetricsListener().Handle)
	}

	storeOpts := []media.Option{
		media.WithFetcher(rt.Fetcher),
		media.WithRunner(rt.Pool),
		media.WithEventBus(rt.Bus),
		media.WithDirectory(rt.Directory),
	}
	if rt.TracerProvider != nil {
		storeOpts = append(storeOpts, media.WithTracer(telemetry.Tracer(rt.TracerProvider)))
	}

	store, err := media.NewStore(cfg.Spec.BaseDir, storeOpts...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Store = store

	if j := cfg.Spec.Janitor; j != nil && j.Schedule != "" {
		jopts := []media.JanitorOption{media.WithSchedule(j.Schedule)}
		if j.SweepTimeoutSeconds > 0 {
			jopts = append(jopts, media.WithSweepTimeout(time.Duration(j.SweepTimeoutSeconds)*time.Second))
		}
		rt.Janitor = media.NewJanitor(store, jopts...)
	}

	return rt, nil
}

// Close shuts the runtime down in dependency order: sweeps stop first, then
// background tasks drain, then the event queue flushes into its listeners,
// and finally the exporters and the directory client release their handles.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error

	if rt.Janitor != nil {
		rt.Janitor.Stop()
	}
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.Pool != nil {
		if err := rt.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.Bus != nil {
		rt.Bus.Close()
	}
	if rt.Metrics != nil {
		if err := rt.Metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.TracerProvider != nil {
		if err := rt.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.redisClient != nil {
		if err := rt.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func fetchOptions(spec *FetchSpec) []fetch.Option {
	if spec == nil {
		return nil
	}
	var opts []fetch.Option
	if spec.TimeoutSeconds > 0 {
		opts = append(opts, fetch.WithTimeout(time.Duration(spec.TimeoutSeconds)*time.Second))
	}
	if spec.MaxSizeBytes > 0 {
		opts = append(opts, fetch.WithMaxSize(spec.MaxSizeBytes))
	}
	if rl := spec.RateLimit; rl != nil && rl.RPS > 0 {
		burst := rl.Burst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, fetch.WithRateLimit(rl.RPS, burst))
	}
	return opts
}

func poolConfig(spec *PoolSpec) *tasks.PoolConfig {
	if spec == nil {
		return nil
	}
	return &tasks.PoolConfig{
		MaxConcurrent:   spec.MaxConcurrent,
		TaskTimeout:     time.Duration(spec.TaskTimeoutSeconds) * time.Second,
		ShutdownTimeout: time.Duration(spec.ShutdownTimeoutSeconds) * time.Second,
	}
}

// buildDirectory returns the configured reference directory and, for the
// Redis backend, the client that Close must release.
func buildDirectory(ctx context.Context, spec *DirectorySpec) (refdir.Directory, *redis.Client, error) {
	if spec == nil || spec.Backend == "" || spec.Backend == "memory" {
		return refdir.NewMemoryDirectory(), nil, nil
	}
	if spec.Backend != "redis" {
		return nil, nil, fmt.Errorf("unknown directory backend %q", spec.Backend)
	}
	if spec.Redis == nil || spec.Redis.Addr == "" {
		return nil, nil, fmt.Errorf("redis directory requires an addr")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     spec.Redis.Addr,
		Password: spec.Redis.Password,
		DB:       spec.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis directory unreachable at %s: %w", spec.Redis.Addr, err)
	}

	var opts []refdir.RedisOption
	if spec.Redis.Prefix != "" {
		opts = append(opts, refdir.WithPrefix(spec.Redis.Prefix))
	}
	if spec.Redis.TTLSeconds > 0 {
		opts = append(opts, refdir.WithTTL(time.Duration(spec.Redis.TTLSeconds)*time.Second))
	}
	return refdir.NewRedisDirectory(client, opts...), client, nil
}
