package sync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/connectivity"
	"github.com/terrapesca/checkin-backend-go/internal/repository/localfile"
)

// ===== FAKES =====

type fakeEventRepo struct {
	mu      sync.Mutex
	created []attendance.Event
	failIDs map[string]bool
	block   chan struct{} // when set, Create waits for a receive
	started chan struct{} // signals the first Create call
}

func (f *fakeEventRepo) Create(ctx context.Context, event attendance.Event) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[event.ID] {
		return errors.New("remote insert failed")
	}
	f.created = append(f.created, event)
	return nil
}

func (f *fakeEventRepo) createdIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.created))
	for _, e := range f.created {
		ids = append(ids, e.ID)
	}
	return ids
}

func (f *fakeEventRepo) ListByVendor(ctx context.Context, vendorID string, limit int) ([]attendance.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Event, int64, error) {
	return nil, 0, nil
}

func (f *fakeEventRepo) GetLastKind(ctx context.Context, vendorID string) (attendance.Kind, error) {
	return "", attendance.ErrEventNotFound
}

type fakeVendorRepo struct{}

func (f *fakeVendorRepo) GetByUserID(ctx context.Context, userID string) (vendor.Vendor, error) {
	return vendor.Vendor{}, vendor.ErrVendorNotFound
}

func (f *fakeVendorRepo) GetByID(ctx context.Context, id string) (vendor.Vendor, error) {
	return vendor.Vendor{ID: id, Name: "Juan Perez", Route: "Ruta Norte", Email: "juan@example.com", Active: true}, nil
}

func (f *fakeVendorRepo) List(ctx context.Context) ([]vendor.Vendor, error) {
	return nil, nil
}

type fakeDispatcher struct {
	mu        sync.Mutex
	committed []attendance.Event
}

func (f *fakeDispatcher) DispatchCommitted(v vendor.Vendor, event attendance.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, event)
}

func (f *fakeDispatcher) Stop() {}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

// ===== HELPERS =====

func testQueue(t *testing.T) *localfile.PendingStore {
	t.Helper()
	dir := t.TempDir()
	return localfile.NewPendingStore(
		filepath.Join(dir, "pending.json"),
		filepath.Join(dir, "dead-letter.json"),
		0,
	)
}

func testPolicy(t *testing.T, notifyOnReconcile bool) attendance.Policy {
	t.Helper()
	policy, err := attendance.NewPolicy("09:05", "UTC", false, true, notifyOnReconcile)
	require.NoError(t, err)
	return policy
}

func queuedEvent(vendorID string, kind attendance.Kind) attendance.PendingEvent {
	return attendance.PendingEvent{
		Event: attendance.Event{
			ID:        uuid.NewString(),
			VendorID:  vendorID,
			Kind:      kind,
			Timestamp: time.Now().UTC(),
			Lodging:   "Hotel Plaza",
		},
	}
}

func onlineMonitor() *connectivity.Monitor {
	m := connectivity.NewMonitor(nil)
	m.SetOnline(true)
	return m
}

// ===== RECONCILER TESTS =====

func TestReconciler_SyncNow_EmptyQueueIsNoop(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	repo := &fakeEventRepo{}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), nil, testPolicy(t, true))

	require.NoError(t, r.SyncNow(context.Background()))

	assert.Empty(t, repo.createdIDs())
	assert.Equal(t, 0, r.Status().PendingCount)
}

func TestReconciler_SyncNow_DrainsQueueInOrder(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	repo := &fakeEventRepo{}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), nil, testPolicy(t, true))

	var ids []string
	for i := 0; i < 3; i++ {
		ev := queuedEvent("v1", attendance.KindCheckIn)
		ids = append(ids, ev.Event.ID)
		require.NoError(t, queue.Append(ev))
	}

	require.NoError(t, r.SyncNow(context.Background()))

	assert.Equal(t, ids, repo.createdIDs())
	assert.Equal(t, 0, r.Status().PendingCount)

	// Committed events carry synced=true.
	for _, e := range repo.created {
		assert.True(t, e.Synced)
	}
}

func TestReconciler_PartialFailureKeepsFailedQueued(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)

	good1 := queuedEvent("v1", attendance.KindCheckIn)
	bad := queuedEvent("v2", attendance.KindCheckIn)
	good2 := queuedEvent("v3", attendance.KindCheckIn)
	require.NoError(t, queue.Append(good1))
	require.NoError(t, queue.Append(bad))
	require.NoError(t, queue.Append(good2))

	repo := &fakeEventRepo{failIDs: map[string]bool{bad.Event.ID: true}}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), nil, testPolicy(t, true))

	require.NoError(t, r.SyncNow(context.Background()))

	// A failure mid-pass does not skip the events after it.
	assert.Equal(t, []string{good1.Event.ID, good2.Event.ID}, repo.createdIDs())

	remaining, err := queue.List()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, bad.Event.ID, remaining[0].Event.ID)
	assert.Equal(t, 1, remaining[0].Attempts)
}

func TestReconciler_NoDuplicateCommitAcrossPasses(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	repo := &fakeEventRepo{}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), nil, testPolicy(t, true))

	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckIn)))

	require.NoError(t, r.SyncNow(context.Background()))
	require.NoError(t, r.SyncNow(context.Background()))

	assert.Len(t, repo.createdIDs(), 1)
}

func TestReconciler_ReentrancyGuard(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckIn)))

	repo := &fakeEventRepo{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), nil, testPolicy(t, true))

	done := make(chan error, 1)
	go func() {
		done <- r.SyncNow(context.Background())
	}()

	// Wait until the first pass is mid-flight, then race a second trigger.
	<-repo.started
	assert.ErrorIs(t, r.SyncNow(context.Background()), ErrSyncInProgress)
	assert.True(t, r.Status().Syncing)

	close(repo.block)
	require.NoError(t, <-done)
	assert.False(t, r.Status().Syncing)
}

func TestReconciler_TryPass_SkipsWhileOffline(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckIn)))

	repo := &fakeEventRepo{}
	monitor := connectivity.NewMonitor(nil) // offline
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, monitor, nil, testPolicy(t, true))

	r.TryPass(context.Background())

	assert.Empty(t, repo.createdIDs())
	assert.Equal(t, 1, r.Status().PendingCount)
}

func TestReconciler_NotifiesOnReconcileCommit(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckIn)))
	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckOut)))

	repo := &fakeEventRepo{}
	dispatcher := &fakeDispatcher{}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), dispatcher, testPolicy(t, true))

	require.NoError(t, r.SyncNow(context.Background()))
	assert.Equal(t, 2, dispatcher.count())
}

func TestReconciler_NotifyOnReconcileDisabled(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckIn)))

	repo := &fakeEventRepo{}
	dispatcher := &fakeDispatcher{}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), dispatcher, testPolicy(t, false))

	require.NoError(t, r.SyncNow(context.Background()))
	assert.Equal(t, 0, dispatcher.count())
}

func TestReconciler_Watch_DrainsOnReconnect(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckOut)))

	repo := &fakeEventRepo{}
	monitor := connectivity.NewMonitor(nil)
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, monitor, nil, testPolicy(t, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Watch(ctx)

	monitor.SetOnline(true)

	require.Eventually(t, func() bool {
		return len(repo.createdIDs()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	count, err := queue.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReconciler_StatusTracksLastSync(t *testing.T) {
	t.Parallel()
	queue := testQueue(t)
	repo := &fakeEventRepo{}
	r := NewReconciler(queue, repo, &fakeVendorRepo{}, onlineMonitor(), nil, testPolicy(t, true))

	assert.Nil(t, r.Status().LastSyncAt)

	// A pass that commits nothing leaves the timestamp alone.
	require.NoError(t, r.SyncNow(context.Background()))
	assert.Nil(t, r.Status().LastSyncAt)

	require.NoError(t, queue.Append(queuedEvent("v1", attendance.KindCheckIn)))
	require.NoError(t, r.SyncNow(context.Background()))
	assert.NotNil(t, r.Status().LastSyncAt)
}
