package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docmap/pkg/core"
)

func TestPersistenceError_MatchesSentinelAndCause(t *testing.T) {
	err := core.Persistence("save", "doc1", core.ErrReadOnly)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.NotErrorIs(t, err, core.ErrMalformedIdentifier)
	assert.Equal(t, "save doc1: backend is in read-only mode", err.Error())
}

func TestPersistence_DoesNotDoubleWrap(t *testing.T) {
	inner := core.Persistence("redis set", "doc1", errors.New("connection refused"))
	outer := core.Persistence("save", "doc1", fmt.Errorf("backend: %w", inner))

	var pe *core.PersistenceError
	require.ErrorAs(t, outer, &pe)
	assert.Equal(t, "redis set", pe.Op)
}

func TestPersistence_Nil(t *testing.T) {
	assert.NoError(t, core.Persistence("save", "x", nil))
}

func TestMalformedIdentifierError(t *testing.T) {
	cause := errors.New("invalid UUID length: 10")
	err := error(&core.MalformedIdentifierError{Field: "id", Value: "not-a-guid", Err: cause})

	assert.ErrorIs(t, err, core.ErrMalformedIdentifier)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, core.ErrPersistence)
	assert.Contains(t, err.Error(), `"not-a-guid"`)
}

func TestRecord_Clone(t *testing.T) {
	rec := core.Record{ID: "a", Fields: core.Fields{"name": "bobo"}}
	cp := rec.Clone()
	cp.Fields["name"] = "changed"

	assert.Equal(t, "bobo", rec.Fields["name"])
}

func TestEvent_String(t *testing.T) {
	e := core.Event{Type: core.EventCreate, ID: "invitations/1"}
	assert.Equal(t, "CREATE invitations/1", e.String())
}
