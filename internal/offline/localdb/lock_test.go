package localdb_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/countsync/internal/offline"
	"github.com/ammerola/countsync/internal/offline/localdb"
	"github.com/ammerola/countsync/test/helpers"
)

func openFileStore(t *testing.T, path string) *localdb.Store {
	t.Helper()
	store, err := localdb.Open(path, helpers.TestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_TryLockPass(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	first := openFileStore(t, path)
	second := openFileStore(t, path)

	unlock, ok, err := first.TryLockPass()
	require.NoError(t, err)
	require.True(t, ok)

	pid, err := os.ReadFile(localdb.LockPath(path))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(pid)))

	_, ok, err = second.TryLockPass()
	require.NoError(t, err)
	assert.False(t, ok, "lock is held by the first store")

	unlock()

	unlock, ok, err = second.TryLockPass()
	require.NoError(t, err)
	assert.True(t, ok)
	unlock()
}

func TestStore_TryLockPass_Memory(t *testing.T) {
	store := openStore(t)

	for range 2 {
		unlock, ok, err := store.TryLockPass()
		require.NoError(t, err)
		assert.True(t, ok)
		unlock()
	}
}

// blockingDispatcher accepts every operation once release is closed
type blockingDispatcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, _ offline.Operation) offline.Outcome {
	d.calls.Add(1)
	d.once.Do(func() { close(d.started) })
	select {
	case <-d.release:
	case <-ctx.Done():
	}
	return offline.Accepted(201)
}

func TestStore_PassesAcrossStoresDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")
	logger := helpers.TestLogger()
	online := offline.ConnectivityFunc(func() bool { return true })

	dispatcher := &blockingDispatcher{started: make(chan struct{}), release: make(chan struct{})}
	newExecutor := func(store offline.Store) (*offline.Queue, *offline.Executor) {
		queue := offline.NewQueue(store, 3, logger)
		return queue, offline.NewExecutor(queue, dispatcher, online, offline.DefaultRetryPolicy(), 0, logger)
	}

	queueA, execA := newExecutor(openFileStore(t, path))
	_, execB := newExecutor(openFileStore(t, path))

	_, err := queueA.Enqueue(ctx, testOperation(t, 4))
	require.NoError(t, err)

	done := make(chan offline.SyncReport, 1)
	go func() {
		report, err := execA.Sync(ctx)
		assert.NoError(t, err)
		done <- report
	}()
	<-dispatcher.started

	second, err := execB.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, offline.SkipInProgress, second.Skipped)

	close(dispatcher.release)
	first := <-done
	assert.Equal(t, 1, first.Succeeded)
	assert.Equal(t, int32(1), dispatcher.calls.Load(), "queued operation dispatched once")
}
