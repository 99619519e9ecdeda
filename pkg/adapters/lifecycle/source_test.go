package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docmap/pkg/core"
)

func TestSource_ForwardsAndCloses(t *testing.T) {
	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventCreate, ID: "a"}
	in <- core.Event{Type: core.EventModify, ID: "a"}
	close(in)

	src := NewSource(in)
	require.NoError(t, src.Start(context.Background()))

	var got []string
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				assert.Equal(t, []string{"CREATE a", "MODIFY a"}, got)
				return
			}
			got = append(got, e.String())
		case <-timeout:
			t.Fatal("source did not close")
		}
	}
}

func TestSource_FiltersTypes(t *testing.T) {
	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventCreate, ID: "a"}
	in <- core.Event{Type: core.EventDelete, ID: "b"}
	close(in)

	src := NewSource(in, WithTypes(core.EventDelete))
	require.NoError(t, src.Start(context.Background()))

	var got []string
	for e := range src.Events() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"DELETE b"}, got)
}

func TestSource_StopsOnCancel(t *testing.T) {
	in := make(chan core.Event)
	ctx, cancel := context.WithCancel(context.Background())

	src := NewSource(in)
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("source did not close after cancel")
	}
}
