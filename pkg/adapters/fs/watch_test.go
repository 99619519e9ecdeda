package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docmap/pkg/core"
)

func waitEvent(t *testing.T, events <-chan core.Event, id string) core.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed early")
			if e.ID == id {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event on %s", id)
			return core.Event{}
		}
	}
}

func TestWatch_ReportsSaves(t *testing.T) {
	b, path := setupBackend(t)
	require.NoError(t, os.MkdirAll(filepath.Join(path, "invitations"), 0755))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Watch(ctx, "invitations/**")
	require.NoError(t, err)

	_, err = b.Save(context.Background(), core.Record{ID: "invitations/a", Fields: core.Fields{"name": "a"}})
	require.NoError(t, err)

	e := waitEvent(t, events, "invitations/a")
	assert.Contains(t, []core.EventType{core.EventCreate, core.EventModify}, e.Type)
}

func TestWatch_ReportsDeletes(t *testing.T) {
	b, path := setupBackend(t)
	_, err := b.Save(context.Background(), core.Record{ID: "gone", Fields: core.Fields{"name": "x"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := b.Watch(ctx, "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(path, "gone.json")))

	e := waitEvent(t, events, "gone")
	assert.Equal(t, core.EventDelete, e.Type)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	b, _ := setupBackend(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := b.Watch(ctx, "")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(3 * time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}

func TestWatch_InvalidPattern(t *testing.T) {
	b, _ := setupBackend(t)
	_, err := b.Watch(context.Background(), "[")
	assert.Error(t, err)
}
