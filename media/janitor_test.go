package media_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/MediaKit/media"
)

func TestJanitorSweepsOnSchedule(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	orphan, err := store.RegisterFromBytes(ctx, pngBytes())
	require.NoError(t, err)
	kept, err := store.RegisterFromBytes(ctx, pngBytes(), media.WithReference("msg-1"))
	require.NoError(t, err)

	j := media.NewJanitor(store, media.WithSchedule("@every 100ms"))
	require.NoError(t, j.Start())
	defer j.Stop()

	require.Eventually(t, func() bool {
		_, err := store.GetMetadata(orphan)
		return errors.Is(err, media.ErrNotFound)
	}, 5*time.Second, 20*time.Millisecond, "the janitor should collect the orphan")

	_, err = store.GetMetadata(kept)
	assert.NoError(t, err)
}

func TestJanitorRejectsInvalidSchedule(t *testing.T) {
	store, _ := newTestStore(t)

	j := media.NewJanitor(store, media.WithSchedule("not a schedule"))
	err := j.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a schedule")
}

func TestJanitorStopIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	j := media.NewJanitor(store, media.WithSchedule("@every 1h"), media.WithSweepTimeout(time.Second))
	require.NoError(t, j.Start())
	j.Stop()
	j.Stop()
}
