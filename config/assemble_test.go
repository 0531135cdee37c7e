package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/MediaKit/refdir"
)

func memoryConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		APIVersion: APIVersion,
		Kind:       Kind,
		Spec: StoreSpec{
			BaseDir: t.TempDir(),
		},
	}
}

func TestAssemble_Defaults(t *testing.T) {
	ctx := context.Background()
	rt, err := Assemble(ctx, memoryConfig(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	assert.NotNil(t, rt.Store)
	assert.NotNil(t, rt.Fetcher)
	assert.NotNil(t, rt.Pool)
	assert.NotNil(t, rt.Bus)
	assert.NotNil(t, rt.Directory)
	assert.Nil(t, rt.Janitor)
	assert.Nil(t, rt.Metrics)
	assert.Nil(t, rt.TracerProvider)
}

func TestAssemble_NilConfig(t *testing.T) {
	_, err := Assemble(context.Background(), nil)
	require.Error(t, err)
}

func TestAssemble_StoreWorks(t *testing.T) {
	ctx := context.Background()
	rt, err := Assemble(ctx, memoryConfig(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	payload := []byte("assembled store payload")
	id, err := rt.Store.RegisterFromBytes(ctx, payload)
	require.NoError(t, err)

	data, err := rt.Store.Data(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestAssemble_MemoryDirectoryByDefault(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	cfg.Spec.Directory = &DirectorySpec{Backend: "memory"}

	rt, err := Assemble(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	_, ok := rt.Directory.(*refdir.MemoryDirectory)
	assert.True(t, ok, "expected memory directory, got %T", rt.Directory)
}

func TestAssemble_RedisDirectory(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cfg := memoryConfig(t)
	cfg.Spec.Directory = &DirectorySpec{
		Backend: "redis",
		Redis: &RedisSpec{
			Addr:   mr.Addr(),
			Prefix: "test:media:",
		},
	}

	rt, err := Assemble(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	dir, ok := rt.Directory.(*refdir.RedisDirectory)
	require.True(t, ok, "expected redis directory, got %T", rt.Directory)

	require.NoError(t, dir.Bind(ctx, "session-1", "media-1"))
	inUse, err := dir.InUse(ctx, "media-1")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestAssemble_RedisUnreachable(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Spec.Directory = &DirectorySpec{
		Backend: "redis",
		Redis:   &RedisSpec{Addr: "127.0.0.1:1"},
	}

	_, err := Assemble(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestAssemble_DirectoryErrors(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := memoryConfig(t)
		cfg.Spec.Directory = &DirectorySpec{Backend: "etcd"}

		_, err := Assemble(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown directory backend")
	})

	t.Run("redis without addr", func(t *testing.T) {
		cfg := memoryConfig(t)
		cfg.Spec.Directory = &DirectorySpec{Backend: "redis"}

		_, err := Assemble(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires an addr")
	})
}

func TestAssemble_Janitor(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	cfg.Spec.Janitor = &JanitorSpec{Schedule: "@every 1h", SweepTimeoutSeconds: 30}

	rt, err := Assemble(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	require.NotNil(t, rt.Janitor)
	require.NoError(t, rt.Janitor.Start())
}

func TestAssemble_Metrics(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	cfg.Spec.Metrics = &MetricsSpec{Enabled: true, Addr: "127.0.0.1:0"}

	rt, err := Assemble(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	require.NotNil(t, rt.Metrics)
}

func TestAssemble_Tracing(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	cfg.Spec.Tracing = &TracingSpec{
		Enabled:  true,
		Endpoint: "http://localhost:0/v1/traces",
	}

	rt, err := Assemble(ctx, cfg)
	require.NoError(t, err)

	assert.NotNil(t, rt.TracerProvider)
	require.NoError(t, rt.Close(ctx))
}

func TestAssemble_InvalidStoreDir(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Spec.BaseDir = ""

	// An empty base dir slips past ParseConfig only when the Config is built
	// in code; Assemble must still surface the store's rejection.
	_, err := Assemble(context.Background(), cfg)
	require.Error(t, err)
}

func TestRuntimeClose_Idempotent(t *testing.T) {
	ctx := context.Background()
	rt, err := Assemble(ctx, memoryConfig(t))
	require.NoError(t, err)

	require.NoError(t, rt.Close(ctx))
	require.NoError(t, rt.Close(ctx))
}

func TestLoadAndAssemble(t *testing.T) {
	ctx := context.Background()
	storeDir := t.TempDir()

	manifest := fmt.Sprintf(`apiVersion: mediakit.altairalabs.ai/v1alpha1
kind: MediaStoreConfig
metadata:
  name: e2e-store
spec:
  base_dir: %s
  fetch:
    timeout_seconds: 5
  pool:
    max_concurrent: 4
`, storeDir)

	path := filepath.Join(t.TempDir(), "mediastore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	rt, err := Assemble(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(ctx)) }()

	payload := []byte("end to end payload")
	id, err := rt.Store.RegisterFromBytes(ctx, payload)
	require.NoError(t, err)

	data, err := rt.Store.Data(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}
