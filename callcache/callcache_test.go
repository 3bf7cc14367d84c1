package callcache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ForrestTrepte/SoCloverAI/backends"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chatTarget = types.Target{Kind: types.KindChat, Provider: "openai", Model: "gpt-4", Temperature: 0.5}

func newFileStore(t *testing.T, path string) *Store {
	t.Helper()
	backend, err := backends.NewFileBackend(types.BackendConfig{Path: path})
	require.NoError(t, err)
	store, err := New(backend)
	require.NoError(t, err)
	return store
}

func TestKey(t *testing.T) {
	key := NewKey(2, "hello", chatTarget)
	assert.Equal(t, "gpt-4", key.Model)
	assert.Equal(t, `trial 2 ::: hello ::: `+chatTarget.Signature(), key.String())
	assert.NoError(t, key.Validate())

	assert.ErrorIs(t, NewKey(-1, "x", chatTarget).Validate(), types.ErrConfiguration)
}

func TestKey_separatorInFingerprint(t *testing.T) {
	spliced := Key{Fingerprint: `a ::: {"x":1}`, Signature: `{"y":2}`}
	plain := Key{Fingerprint: "a", Signature: `{"x":1} ::: {"y":2}`}
	assert.NotEqual(t, spliced.String(), plain.String())
	assert.Equal(t, `trial 0 ::: "a ::: {\"x\":1}" ::: {"y":2}`, spliced.String())

	quoted := Key{Fingerprint: `"a"`, Signature: "s"}
	assert.Equal(t, `trial 0 ::: "\"a\"" ::: s`, quoted.String())

	assert.Equal(t, "trial 1 ::: apple, tree ::: s", Key{Trial: 1, Fingerprint: "apple, tree", Signature: "s"}.String())
}

func TestModelFromSignature(t *testing.T) {
	cases := map[string]string{
		`[('model_name', 'gpt-4-1106-preview'), ('temperature', 0.5)]`: "gpt-4-1106-preview",
		`{"model_name": "gpt-3.5-turbo", "temperature": 0.0}`:          "gpt-3.5-turbo",
		chatTarget.Signature(): "gpt-4",
	}
	for signature, want := range cases {
		got, err := ModelFromSignature(signature)
		require.NoError(t, err, signature)
		assert.Equal(t, want, got)
	}

	_, err := ModelFromSignature(`{"model": "gpt-4"}`)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestKey_ResolveModel(t *testing.T) {
	model, err := Key{Signature: `('model_name', 'gpt-4')`}.ResolveModel()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", model)

	_, err = Key{Signature: "opaque"}.ResolveModel()
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "llm-cache.json")
	store := newFileStore(t, path)

	key := NewKey(0, "prompt", chatTarget)
	_, found, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.False(t, found, "never-written key must miss")

	responses := []string{"Best: wool", "Best: sheep"}
	require.NoError(t, store.Update(ctx, key, responses))

	got, found, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, responses, got)

	// Reconstructing from the persisted file reproduces identical lookups.
	reloaded := newFileStore(t, path)
	got, found, err = reloaded.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, responses, got)
}

func TestStore_TrialsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, filepath.Join(t.TempDir(), "c.json"))

	require.NoError(t, store.Update(ctx, NewKey(0, "p", chatTarget), []string{"zero"}))
	require.NoError(t, store.Update(ctx, NewKey(1, "p", chatTarget), []string{"one"}))

	got0, _, err := store.Lookup(ctx, NewKey(0, "p", chatTarget))
	require.NoError(t, err)
	got1, _, err := store.Lookup(ctx, NewKey(1, "p", chatTarget))
	require.NoError(t, err)
	assert.Equal(t, []string{"zero"}, got0)
	assert.Equal(t, []string{"one"}, got1)

	_, found, err := store.Lookup(ctx, NewKey(2, "p", chatTarget))
	require.NoError(t, err)
	assert.False(t, found)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_UpdateOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, filepath.Join(t.TempDir(), "c.json"))
	key := NewKey(0, "p", chatTarget)

	require.NoError(t, store.Update(ctx, key, []string{"a", "b"}))
	require.NoError(t, store.Update(ctx, key, []string{"c"}))

	got, _, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)
}

func TestStore_EmptyEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, filepath.Join(t.TempDir(), "c.json"))
	key := NewKey(0, "p", chatTarget)

	require.NoError(t, store.Update(ctx, key, nil))
	_, found, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_NilBackend(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	backend, err := backends.NewMemoryBackend(types.BackendConfig{})
	require.NoError(t, err)
	store, err := New(backend)
	require.NoError(t, err)
	return store
}

func TestMemo_CachesResult(t *testing.T) {
	ctx := context.Background()
	memo := NewMemo(newMemoryStore(t), 0)
	key := NewKey(0, "p", chatTarget)

	var calls int32
	call := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"r"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := memo.Do(ctx, key, call)
		require.NoError(t, err)
		assert.Equal(t, []string{"r"}, got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMemo_OneInFlightCallPerKey(t *testing.T) {
	ctx := context.Background()
	memo := NewMemo(newMemoryStore(t), 4)
	key := NewKey(0, "p", chatTarget)

	var calls int32
	release := make(chan struct{})
	call := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"r"}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := memo.Do(ctx, key, call)
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, got := range results {
		assert.Equal(t, []string{"r"}, got)
	}
}

func TestMemo_ErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	memo := NewMemo(store, 0)
	key := NewKey(0, "p", chatTarget)

	boom := errors.New("boom")
	_, err := memo.Do(ctx, key, func(ctx context.Context) ([]string, error) {
		return []string{"partial"}, boom
	})
	require.ErrorIs(t, err, boom)

	_, found, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemo_CancelledCallIsNotCached(t *testing.T) {
	store := newMemoryStore(t)
	memo := NewMemo(store, 0)
	key := NewKey(0, "p", chatTarget)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := memo.Do(ctx, key, func(ctx context.Context) ([]string, error) {
			close(started)
			<-ctx.Done()
			return []string{"late"}, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	<-started
	cancel()
	<-done

	_, found, err := store.Lookup(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, found, "abandoned calls must not be written")
}

func TestMemo_InvalidKey(t *testing.T) {
	memo := NewMemo(newMemoryStore(t), 0)
	_, err := memo.Do(context.Background(), NewKey(-1, "p", chatTarget), func(ctx context.Context) ([]string, error) {
		t.Fatal("call must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
