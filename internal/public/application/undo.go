package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/metrics"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// DefaultUndoWindow is how long a removed favorite stays undoable before the remote delete is issued.
const DefaultUndoWindow = 3 * time.Second

var (
	// ErrFavoriteNotListed is returned by Remove for a place that is not in the displayed list.
	ErrFavoriteNotListed = errors.New("favorite is not in the list")
	// ErrControllerClosed is returned once the controller has been torn down.
	ErrControllerClosed = errors.New("undo controller is closed")
)

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FavoriteRemover issues the remote delete. FavoriteService satisfies it.
type FavoriteRemover interface {
	Remove(ctx context.Context, userID, placeID string) error
}

// UndoConfig defines dependencies required by UndoController.
type UndoConfig struct {
	UserID        string
	Remover       FavoriteRemover
	Window        time.Duration
	CommitTimeout time.Duration
	Scheduler     Scheduler
	Logger        *log.Logger
	Now           func() time.Time
}

// PendingDeletion describes the removal currently waiting for its commit.
type PendingDeletion struct {
	Entry    domain.FavoriteEntry
	Deadline time.Time
}

type pendingDeletion struct {
	seq      uint64
	entry    domain.FavoriteEntry
	index    int
	snapshot []domain.FavoriteEntry
	timer    Timer
	deadline time.Time
	done     chan struct{}
}

// UndoController はお気に入り一覧の楽観的削除を管理する。
// Stable と PendingDelete の 2 状態を持ち、保留中の削除は常に高々 1 件。
// 保留中に別の削除が来た場合、先の削除はタイマーを止めて即時コミットする(取り消し対象は最新の 1 件のみ)。
type UndoController struct {
	userID        string
	remover       FavoriteRemover
	window        time.Duration
	commitTimeout time.Duration
	scheduler     Scheduler
	logger        *log.Logger
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	items   []domain.FavoriteEntry
	pending *pendingDeletion
	// committing はリモート削除を発行中の placeID。完了時に done が閉じられる。
	committing map[string]chan struct{}
	seq        uint64
	lastErr    error
	closed     bool
	inflight   sync.WaitGroup
}

// NewUndoController creates a controller in the Stable state displaying items.
func NewUndoController(cfg UndoConfig, items []domain.FavoriteEntry) *UndoController {
	if cfg.Window <= 0 {
		cfg.Window = DefaultUndoWindow
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 5 * time.Second
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = realScheduler{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UndoController{
		userID:        cfg.UserID,
		remover:       cfg.Remover,
		window:        cfg.Window,
		commitTimeout: cfg.CommitTimeout,
		scheduler:     cfg.Scheduler,
		logger:        cfg.Logger,
		now:           cfg.Now,
		ctx:           ctx,
		cancel:        cancel,
		items:         cloneEntries(items),
		committing:    make(map[string]chan struct{}),
	}
}

// Items returns a copy of the displayed list.
func (c *UndoController) Items() []domain.FavoriteEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEntries(c.items)
}

// Pending reports the pending deletion, if any.
func (c *UndoController) Pending() (PendingDeletion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingDeletion{}, false
	}
	return PendingDeletion{Entry: c.pending.entry, Deadline: c.pending.deadline}, true
}

// Replace はストアから再取得した一覧で表示を差し替える。保留中およびコミット中の削除対象は引き続き非表示にする。
func (c *UndoController) Replace(items []domain.FavoriteEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	fresh := make([]domain.FavoriteEntry, 0, len(items))
	for _, item := range items {
		if _, ok := c.committing[item.PlaceID]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	if c.pending != nil {
		idx := indexOfPlace(fresh, c.pending.entry.PlaceID)
		if idx >= 0 {
			c.pending.snapshot = cloneEntries(fresh)
			c.pending.index = idx
			fresh = removeAt(fresh, idx)
		} else {
			c.pending.snapshot = insertAt(cloneEntries(fresh), c.pending.entry, c.pending.index)
		}
	}
	c.items = fresh
}

// Remove は一覧から即座に取り除き、取り消し可能期間の経過後にリモート削除を発行する。
func (c *UndoController) Remove(placeID string) (PendingDeletion, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return PendingDeletion{}, ErrControllerClosed
	}
	idx := indexOfPlace(c.items, placeID)
	if idx < 0 {
		c.mu.Unlock()
		return PendingDeletion{}, ErrFavoriteNotListed
	}

	var flushed *pendingDeletion
	if c.pending != nil {
		// Stop が false の場合はタイマー側が既にコミットを開始しようとしている。
		// その場合 fire は seq 不一致で何もしないため、ここで確実にコミットする。
		c.pending.timer.Stop()
		flushed = c.pending
		c.pending = nil
		c.beginCommit(flushed)
	}

	snapshot := cloneEntries(c.items)
	entry := c.items[idx]
	c.items = removeAt(cloneEntries(c.items), idx)

	c.seq++
	seq := c.seq
	p := &pendingDeletion{
		seq:      seq,
		entry:    entry,
		index:    idx,
		snapshot: snapshot,
		deadline: c.now().Add(c.window),
	}
	p.timer = c.scheduler.AfterFunc(c.window, func() { c.fire(seq) })
	c.pending = p
	c.mu.Unlock()

	if flushed != nil {
		go c.commit(flushed)
	}
	return PendingDeletion{Entry: entry, Deadline: p.deadline}, nil
}

// Undo はタイマー発火前であれば削除前のスナップショットをそのまま復元する。
// 保留中の削除がない、または既にコミットが始まっている場合は何もしない(false)。
func (c *UndoController) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pending == nil {
		return false
	}
	if !c.pending.timer.Stop() {
		return false
	}
	c.items = c.pending.snapshot
	c.pending = nil
	metrics.FavoriteDeletions.WithLabelValues(metrics.OutcomeRolledBack).Inc()
	return true
}

// TakeError returns the last commit failure once and clears it.
func (c *UndoController) TakeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.lastErr
	c.lastErr = nil
	return err
}

// Close はタイマーとスナップショットを破棄し、実行中のコミットの終了を待つ。
// 以降タイマーが発火してもリモート削除は行われない。
func (c *UndoController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.pending != nil {
		c.pending.timer.Stop()
		c.pending = nil
		metrics.FavoriteDeletions.WithLabelValues(metrics.OutcomeDiscarded).Inc()
	}
	c.items = nil
	c.mu.Unlock()

	c.cancel()
	c.inflight.Wait()
}

func (c *UndoController) fire(seq uint64) {
	c.mu.Lock()
	if c.closed || c.pending == nil || c.pending.seq != seq {
		c.mu.Unlock()
		return
	}
	p := c.pending
	c.pending = nil
	c.beginCommit(p)
	c.mu.Unlock()

	c.commit(p)
}

// beginCommit must be called with c.mu held.
func (c *UndoController) beginCommit(p *pendingDeletion) {
	p.done = make(chan struct{})
	c.committing[p.entry.PlaceID] = p.done
	c.inflight.Add(1)
}

func (c *UndoController) commit(p *pendingDeletion) {
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.commitTimeout)
	defer cancel()

	err := c.remover.Remove(ctx, c.userID, p.entry.PlaceID)
	if err == nil {
		metrics.FavoriteDeletions.WithLabelValues(metrics.OutcomeCommitted).Inc()
	} else {
		metrics.FavoriteDeletions.WithLabelValues(metrics.OutcomeFailed).Inc()
		if c.logger != nil {
			c.logger.Printf("お気に入り削除のコミットに失敗 user=%q place=%q err=%v", c.userID, p.entry.PlaceID, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committing[p.entry.PlaceID] == p.done {
		delete(c.committing, p.entry.PlaceID)
	}
	close(p.done)
	if err == nil || c.closed {
		return
	}
	// 削除前の並びに戻す。後続の削除が保留中ならそのスナップショットにも戻す。
	if indexOfPlace(c.items, p.entry.PlaceID) < 0 {
		c.items = insertAt(c.items, p.entry, p.index)
	}
	if c.pending != nil && indexOfPlace(c.pending.snapshot, p.entry.PlaceID) < 0 {
		c.pending.snapshot = insertAt(c.pending.snapshot, p.entry, p.index)
	}
	c.lastErr = err
}

// Reclaim は placeID の削除を取りやめる。再登録やトグルの前に呼ぶ。
// 保留中の削除であればタイマーを止めて一覧を戻し、エントリと true を返す。
// リモート削除が発行中であればその完了を待ってから false を返す。
func (c *UndoController) Reclaim(ctx context.Context, placeID string) (domain.FavoriteEntry, bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.FavoriteEntry{}, false, nil
	}
	if c.pending != nil && c.pending.entry.PlaceID == placeID {
		// fire は c.mu を取ってから pending を確認するため、ここで外せばコミットされない。
		c.pending.timer.Stop()
		entry := c.pending.entry
		c.items = c.pending.snapshot
		c.pending = nil
		c.mu.Unlock()
		metrics.FavoriteDeletions.WithLabelValues(metrics.OutcomeRolledBack).Inc()
		return entry, true, nil
	}
	done, ok := c.committing[placeID]
	c.mu.Unlock()
	if !ok {
		return domain.FavoriteEntry{}, false, nil
	}

	select {
	case <-done:
		return domain.FavoriteEntry{}, false, nil
	case <-ctx.Done():
		return domain.FavoriteEntry{}, false, ctx.Err()
	}
}

// Hidden reports whether placeID is removed from the list but may still be in the store.
func (c *UndoController) Hidden(placeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil && c.pending.entry.PlaceID == placeID {
		return true
	}
	_, ok := c.committing[placeID]
	return ok
}

func indexOfPlace(items []domain.FavoriteEntry, placeID string) int {
	for i, item := range items {
		if item.PlaceID == placeID {
			return i
		}
	}
	return -1
}

func cloneEntries(items []domain.FavoriteEntry) []domain.FavoriteEntry {
	out := make([]domain.FavoriteEntry, len(items))
	copy(out, items)
	return out
}

func removeAt(items []domain.FavoriteEntry, idx int) []domain.FavoriteEntry {
	return append(items[:idx], items[idx+1:]...)
}

func insertAt(items []domain.FavoriteEntry, entry domain.FavoriteEntry, idx int) []domain.FavoriteEntry {
	if idx < 0 {
		idx = 0
	}
	if idx > len(items) {
		idx = len(items)
	}
	out := make([]domain.FavoriteEntry, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, entry)
	return append(out, items[idx:]...)
}
