package keylog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndCount(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Now()
	entries := []Entry{
		{Time: now, Device: "/dev/input/event0", Code: 30, Usage: 0x04, Pressed: true},
		{Time: now.Add(time.Millisecond), Device: "/dev/input/event0", Code: 30, Usage: 0x04, Pressed: false},
		{Time: now.Add(2 * time.Millisecond), Device: "/dev/input/event1", Code: 272, Usage: 0, Pressed: true},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(e))
	}

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "keys.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(Entry{Time: time.Now(), Device: "x", Code: 1, Pressed: true}))
}

func TestOpenIsReusable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(Entry{Time: time.Now(), Device: "x", Code: 1, Pressed: true}))
	require.NoError(t, store.Close())

	// Reopening must see the prior rows.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
