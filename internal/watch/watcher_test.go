package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"roster/internal/kv"
	"roster/internal/record"
	"roster/internal/store"
)

func TestWatcherReportsRecordCounts(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "data.json")
	events := make(chan Event, 8)

	w, err := New(path, store.DefaultKey, nil, func(ev Event) {
		events <- ev
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Write through the real file backend so the watcher sees the same
	// rename-based save the store performs.
	substrate, err := kv.NewFile(path)
	require.NoError(t, err)
	defer substrate.Close()
	st, err := store.New(substrate, store.DefaultKey, nil)
	require.NoError(t, err)

	// Seed writes land as several rapid saves; the debounce may or may
	// not coalesce them all, so wait until the final count shows up.
	ev := waitForCount(t, events, 3)
	require.Equal(t, 0, ev.Dropped)

	_, err = st.Upsert(record.Record{ID: "user_4", Name: "X", Email: "x@example.com", Active: true})
	require.NoError(t, err)

	waitForCount(t, events, 4)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "data.json")
	w, err := New(path, store.DefaultKey, nil, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func waitForCount(t *testing.T, events chan Event, want int) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Records == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for an event with %d records", want)
			return Event{}
		}
	}
}
