package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

func TestInMemoryStoreGetUnknown(t *testing.T) {
	store := NewInMemoryStore()

	trace, err := store.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, trace)
}

func TestInMemoryStorePutGetClones(t *testing.T) {
	store := NewInMemoryStore()

	original := core.Trace{core.NewUserMessage("hello")}
	require.NoError(t, store.Put("s1", original))

	got, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Content)

	// Mutating the returned trace must not affect the stored copy.
	got[0].Content = "changed"

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Content)
}

func TestInMemoryStoreAppend(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Append("s1", core.NewUserMessage("first")))
	require.NoError(t, store.Append("s1", core.NewAssistantMessage("second")))

	trace, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, trace, 2)
	assert.Equal(t, core.RoleUser, trace[0].Role)
	assert.Equal(t, core.RoleAssistant, trace[1].Role)
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Append("s1", core.NewUserMessage("first")))
	require.NoError(t, store.Delete("s1"))

	trace, err := store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, trace)
}
