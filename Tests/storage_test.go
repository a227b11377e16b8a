/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: storage_test.go
Description: Tests for the local artifact store. Covers byte and JSON round
trips, metadata sidecars, key listing, traversal-safe key resolution, and
deletion.
*/

package appmapper_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/appmapper/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	runTest(t, "TestLocalStoreRoundTrip", func(t *testing.T) {
		store, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)

		// Backend interface compliance
		var backend storage.Backend = store
		assert.NotNil(t, backend)

		key, err := store.StoreBytes("screens/screen_0.png", []byte("fake png"), map[string]interface{}{
			"screen_id": "screen_0",
		})
		require.NoError(t, err)
		assert.Equal(t, "screens/screen_0.png", key)
		assert.True(t, store.Exists(key))

		data, err := store.LoadBytes(key)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake png"), data)

		// Metadata sidecar sits next to the artifact
		sidecar, err := store.LoadBytes(key + ".meta.json")
		require.NoError(t, err)
		var meta map[string]interface{}
		require.NoError(t, json.Unmarshal(sidecar, &meta))
		assert.Equal(t, "screen_0", meta["screen_id"])
		assert.Equal(t, key, meta["_key"])
		assert.NotEmpty(t, meta["_stored_at"])
	})
}

func TestLocalStoreJSON(t *testing.T) {
	runTest(t, "TestLocalStoreJSON", func(t *testing.T) {
		store, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)

		value := map[string]interface{}{"package": "com.test", "screens": 3}
		key, err := store.StoreJSON("results/run.json", value, nil)
		require.NoError(t, err)

		data, err := store.LoadBytes(key)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "com.test", decoded["package"])
	})
}

func TestLocalStoreList(t *testing.T) {
	runTest(t, "TestLocalStoreList", func(t *testing.T) {
		store, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)

		_, err = store.StoreBytes("screens/a.png", []byte("a"), nil)
		require.NoError(t, err)
		_, err = store.StoreBytes("screens/b.png", []byte("b"), nil)
		require.NoError(t, err)
		_, err = store.StoreBytes("results/run.json", []byte("{}"), nil)
		require.NoError(t, err)

		keys, err := store.List("screens")
		require.NoError(t, err)
		assert.Len(t, keys, 2)
		for _, k := range keys {
			assert.True(t, strings.HasPrefix(k, "screens/"))
			assert.False(t, strings.HasSuffix(k, ".meta.json"))
		}

		// Missing prefix lists nothing
		keys, err = store.List("nothing")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestLocalStoreTraversalSafety(t *testing.T) {
	runTest(t, "TestLocalStoreTraversalSafety", func(t *testing.T) {
		base := t.TempDir()
		store, err := storage.NewLocal(base)
		require.NoError(t, err)

		for _, key := range []string{
			"../escape.txt",
			"../../etc/passwd",
			"/absolute.txt",
			"a/../../b.txt",
		} {
			stored, serr := store.StoreBytes(key, []byte("x"), nil)
			require.NoError(t, serr, "key %q", key)

			// Resolved path never leaves the base directory
			path := store.LocalPath(stored)
			rel, rerr := filepath.Rel(base, path)
			require.NoError(t, rerr)
			assert.False(t, strings.HasPrefix(rel, ".."), "key %q escaped to %q", key, path)
		}
	})
}

func TestLocalStoreDelete(t *testing.T) {
	runTest(t, "TestLocalStoreDelete", func(t *testing.T) {
		store, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)

		key, err := store.StoreBytes("tmp/artifact.bin", []byte("data"), nil)
		require.NoError(t, err)
		require.True(t, store.Exists(key))

		require.NoError(t, store.Delete(key))
		assert.False(t, store.Exists(key))
		assert.False(t, store.Exists(key+".meta.json"))

		// Deleting a missing key is not an error
		assert.NoError(t, store.Delete("never/existed"))
	})
}
