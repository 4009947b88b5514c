package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSaveSearch(t *testing.T) {
	store := NewInMemoryStore()

	id1, err := store.Save("Go was announced in 2009")
	require.NoError(t, err)
	assert.Equal(t, "mem_0", id1)

	_, err = store.Save("Rust reached 1.0 in 2015")
	require.NoError(t, err)

	results, err := store.Search("go", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id1, results[0].ID)
}

func TestInMemoryStoreSearchLimit(t *testing.T) {
	store := NewInMemoryStore()

	for i := 0; i < 5; i++ {
		_, err := store.Save("note")
		require.NoError(t, err)
	}

	results, err := store.Search("", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemoryStore()

	id, err := store.Save("temporary")
	require.NoError(t, err)

	require.NoError(t, store.Delete(id))

	results, err := store.Search("temporary", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Error(t, store.Delete(id))
}

func TestRememberTool(t *testing.T) {
	store := NewInMemoryStore()
	remember := NewRememberTool(store)

	out, err := remember.Call(context.Background(), `{"content":"the sky is blue"}`)
	require.NoError(t, err)
	assert.Equal(t, "remembered as mem_0", out)

	results, err := store.Search("sky", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the sky is blue", results[0].Content)
}

func TestRecallTool(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Save("the sky is blue")
	require.NoError(t, err)

	recall := NewRecallTool(store)

	out, err := recall.Call(context.Background(), `{"query":"sky"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "the sky is blue")

	out, err = recall.Call(context.Background(), `{"query":"unrelated"}`)
	require.NoError(t, err)
	assert.Equal(t, "no matching notes", out)
}
