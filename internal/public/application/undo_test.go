package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTimer struct {
	s       *fakeScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

// fire runs the i-th timer callback as if it expired. Stopped timers do nothing.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	if t.stopped || t.fired {
		s.mu.Unlock()
		return
	}
	t.fired = true
	s.mu.Unlock()
	t.f()
}

type recordingRemover struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingRemover) Remove(_ context.Context, userID, placeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID+"/"+placeID)
	return r.err
}

func (r *recordingRemover) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func favoriteFixture() []domain.FavoriteEntry {
	return []domain.FavoriteEntry{
		{RecordID: "r1", UserID: "u1", PlaceID: "a", Name: "A"},
		{RecordID: "r2", UserID: "u1", PlaceID: "b", Name: "B"},
		{RecordID: "r3", UserID: "u1", PlaceID: "c", Name: "C"},
	}
}

func placeIDs(items []domain.FavoriteEntry) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.PlaceID)
	}
	return out
}

func newTestController(remover FavoriteRemover) (*UndoController, *fakeScheduler) {
	sched := &fakeScheduler{}
	c := NewUndoController(UndoConfig{
		UserID:    "u1",
		Remover:   remover,
		Scheduler: sched,
	}, favoriteFixture())
	return c, sched
}

func TestUndoControllerRemoveThenUndo(t *testing.T) {
	remover := &recordingRemover{}
	c, sched := newTestController(remover)

	pending, err := c.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, "b", pending.Entry.PlaceID)
	assert.Equal(t, []string{"a", "c"}, placeIDs(c.Items()))
	assert.Equal(t, []time.Duration{DefaultUndoWindow}, sched.delays)

	assert.True(t, c.Undo())
	assert.Equal(t, favoriteFixture(), c.Items())
	_, ok := c.Pending()
	assert.False(t, ok)

	// 取り消し後にタイマーが発火してもリモート削除は行われない。
	sched.fire(0)
	c.Close()
	assert.Empty(t, remover.Calls())
}

func TestUndoControllerCommitAfterWindow(t *testing.T) {
	remover := &recordingRemover{}
	c, sched := newTestController(remover)

	_, err := c.Remove("a")
	require.NoError(t, err)
	sched.fire(0)

	assert.Equal(t, []string{"u1/a"}, remover.Calls())
	assert.Equal(t, []string{"b", "c"}, placeIDs(c.Items()))
	assert.False(t, c.Undo())
	assert.NoError(t, c.TakeError())

	c.Close()
	assert.Equal(t, []string{"u1/a"}, remover.Calls())
}

func TestUndoControllerCommitFailureRestores(t *testing.T) {
	failure := errors.New("firestore unavailable")
	remover := &recordingRemover{err: failure}
	c, sched := newTestController(remover)
	defer c.Close()

	_, err := c.Remove("b")
	require.NoError(t, err)
	sched.fire(0)

	assert.Equal(t, favoriteFixture(), c.Items())
	assert.ErrorIs(t, c.TakeError(), failure)
	assert.NoError(t, c.TakeError())
}

func TestUndoControllerSecondRemoveFlushesFirst(t *testing.T) {
	remover := &recordingRemover{}
	c, sched := newTestController(remover)

	_, err := c.Remove("a")
	require.NoError(t, err)
	_, err = c.Remove("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, placeIDs(c.Items()))

	// 最新の削除だけが取り消し対象。
	assert.True(t, c.Undo())
	assert.Equal(t, []string{"b", "c"}, placeIDs(c.Items()))

	// 先の削除のタイマーは停止済みなので二重コミットしない。
	sched.fire(0)
	c.Close()
	assert.Equal(t, []string{"u1/a"}, remover.Calls())
}

func TestUndoControllerUndoWithoutPending(t *testing.T) {
	c, _ := newTestController(&recordingRemover{})
	defer c.Close()

	assert.False(t, c.Undo())
	assert.Equal(t, favoriteFixture(), c.Items())
}

func TestUndoControllerCloseDiscardsPending(t *testing.T) {
	remover := &recordingRemover{}
	c, sched := newTestController(remover)

	_, err := c.Remove("a")
	require.NoError(t, err)
	c.Close()
	sched.fire(0)

	assert.Empty(t, remover.Calls())
	assert.Empty(t, c.Items())
	_, err = c.Remove("b")
	assert.ErrorIs(t, err, ErrControllerClosed)
	assert.False(t, c.Undo())
	c.Close()
}

func TestUndoControllerRemoveUnknown(t *testing.T) {
	c, sched := newTestController(&recordingRemover{})
	defer c.Close()

	_, err := c.Remove("zzz")
	assert.ErrorIs(t, err, ErrFavoriteNotListed)
	assert.Empty(t, sched.timers)
}

func TestUndoControllerReplaceKeepsPendingHidden(t *testing.T) {
	remover := &recordingRemover{}
	c, _ := newTestController(remover)
	defer c.Close()

	_, err := c.Remove("b")
	require.NoError(t, err)

	refreshed := append(favoriteFixture(), domain.FavoriteEntry{RecordID: "r4", UserID: "u1", PlaceID: "d", Name: "D"})
	c.Replace(refreshed)
	assert.Equal(t, []string{"a", "c", "d"}, placeIDs(c.Items()))

	require.True(t, c.Undo())
	assert.Equal(t, []string{"a", "b", "c", "d"}, placeIDs(c.Items()))
}

func TestUndoControllerRealTimer(t *testing.T) {
	remover := &recordingRemover{}
	c := NewUndoController(UndoConfig{
		UserID:  "u1",
		Remover: remover,
		Window:  20 * time.Millisecond,
	}, favoriteFixture())
	defer c.Close()

	_, err := c.Remove("c")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(remover.Calls()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"u1/c"}, remover.Calls())
	assert.Equal(t, []string{"a", "b"}, placeIDs(c.Items()))
}

type blockingRemover struct {
	started chan string
	release chan struct{}
}

func (r *blockingRemover) Remove(_ context.Context, _, placeID string) error {
	r.started <- placeID
	<-r.release
	return nil
}

func TestUndoControllerReclaimPending(t *testing.T) {
	remover := &recordingRemover{}
	c, sched := newTestController(remover)
	ctx := context.Background()

	_, err := c.Remove("b")
	require.NoError(t, err)
	assert.True(t, c.Hidden("b"))

	entry, restored, err := c.Reclaim(ctx, "b")
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "r2", entry.RecordID)
	assert.Equal(t, favoriteFixture(), c.Items())
	assert.False(t, c.Hidden("b"))

	_, restored, err = c.Reclaim(ctx, "a")
	require.NoError(t, err)
	assert.False(t, restored)

	sched.fire(0)
	c.Close()
	assert.Empty(t, remover.Calls())
}

func TestUndoControllerHidesEntryWhileCommitting(t *testing.T) {
	remover := &blockingRemover{started: make(chan string, 1), release: make(chan struct{})}
	c, _ := newTestController(remover)

	_, err := c.Remove("a")
	require.NoError(t, err)
	_, err = c.Remove("b")
	require.NoError(t, err)
	require.Equal(t, "a", <-remover.started)

	// ストアにはまだ a が残っている。
	c.Replace(favoriteFixture())
	assert.Equal(t, []string{"c"}, placeIDs(c.Items()))
	assert.True(t, c.Hidden("a"))

	reclaimed := make(chan bool, 1)
	go func() {
		_, restored, err := c.Reclaim(context.Background(), "a")
		assert.NoError(t, err)
		reclaimed <- restored
	}()
	select {
	case <-reclaimed:
		t.Fatal("Reclaim returned before the delete finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(remover.release)
	assert.False(t, <-reclaimed)
	assert.False(t, c.Hidden("a"))

	c.Replace([]domain.FavoriteEntry{favoriteFixture()[2]})
	assert.Equal(t, []string{"c"}, placeIDs(c.Items()))
	c.Close()
}

func TestUndoControllerReclaimHonorsContext(t *testing.T) {
	remover := &blockingRemover{started: make(chan string, 1), release: make(chan struct{})}
	c, _ := newTestController(remover)
	defer c.Close()
	defer close(remover.release)

	_, err := c.Remove("a")
	require.NoError(t, err)
	_, err = c.Remove("b")
	require.NoError(t, err)
	<-remover.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = c.Reclaim(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
