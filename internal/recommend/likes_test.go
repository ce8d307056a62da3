package recommend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }
func (failingStore) Set(string, string) error         { return errors.New("disk on fire") }

func TestLikedSet(t *testing.T) {
	set := NewLikedSet("a", "", "b", "a")
	assert.Len(t, set, 2)
	assert.True(t, set.Has("a"))
	assert.False(t, set.Has("c"))

	var empty LikedSet
	assert.False(t, empty.Has("a"))
}

func TestToggleLiked(t *testing.T) {
	store := NewMemoryStore()

	ids, err := LoadLiked(store, "visitor-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	liked, ids, err := ToggleLiked(store, "visitor-1", "p1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"p1"}, ids)

	liked, ids, err = ToggleLiked(store, "visitor-1", "p2")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	liked, ids, err = ToggleLiked(store, "visitor-1", "p1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, []string{"p2"}, ids)

	stored, err := LoadLiked(store, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, stored)

	// visitors do not share lists
	other, err := LoadLiked(store, "visitor-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	raw, ok, err := store.Get(LikedKey("visitor-1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `["p2"]`, raw)
}

func TestLoadLiked_Errors(t *testing.T) {
	_, err := LoadLiked(failingStore{}, "v")
	assert.Error(t, err)

	store := NewMemoryStore()
	require.NoError(t, store.Set(LikedKey("v"), "not json"))
	_, err = LoadLiked(store, "v")
	assert.Error(t, err)

	_, _, err = ToggleLiked(failingStore{}, "v", "p1")
	assert.Error(t, err)
}
