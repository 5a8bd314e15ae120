package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// SessionsConfig defines dependencies required by FavoriteSessions.
type SessionsConfig struct {
	Favorites FavoriteService
	Window    time.Duration
	Scheduler Scheduler
	Logger    *log.Logger
}

// FavoriteListView is what a signed-in user sees on the favorites screen.
type FavoriteListView struct {
	Items      []domain.FavoriteEntry
	Pending    *PendingDeletion
	ReadFailed bool
	// CommitErr is the last failed delayed delete. It is reported once.
	CommitErr error
}

// FavoriteSessions はユーザーごとに UndoController を 1 つ保持する。
// コントローラはサインアウト時とサーバー停止時に破棄される。
type FavoriteSessions struct {
	favorites FavoriteService
	window    time.Duration
	scheduler Scheduler
	logger    *log.Logger

	mu          sync.Mutex
	controllers map[string]*UndoController
}

// NewFavoriteSessions creates an empty session registry.
func NewFavoriteSessions(cfg SessionsConfig) *FavoriteSessions {
	return &FavoriteSessions{
		favorites:   cfg.Favorites,
		window:      cfg.Window,
		scheduler:   cfg.Scheduler,
		logger:      cfg.Logger,
		controllers: make(map[string]*UndoController),
	}
}

func (s *FavoriteSessions) controller(userID string) (*UndoController, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[userID]; ok {
		return c, false
	}
	c := NewUndoController(UndoConfig{
		UserID:    userID,
		Remover:   s.favorites,
		Window:    s.window,
		Scheduler: s.scheduler,
		Logger:    s.logger,
	}, nil)
	s.controllers[userID] = c
	return c, true
}

// List はストアから一覧を再取得して返す。取得に失敗した場合はエラーにせず、
// 手元の一覧(初回は空)を ReadFailed 付きで返す。
func (s *FavoriteSessions) List(ctx context.Context, userID string) (FavoriteListView, error) {
	if err := requireUser(userID); err != nil {
		return FavoriteListView{}, err
	}
	c, _ := s.controller(userID)

	view := FavoriteListView{}
	items, err := s.favorites.List(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("お気に入り一覧の取得に失敗 user=%q err=%v", userID, err)
		}
		view.ReadFailed = true
	} else {
		c.Replace(items)
	}

	view.Items = c.Items()
	if p, ok := c.Pending(); ok {
		view.Pending = &p
	}
	view.CommitErr = c.TakeError()
	return view, nil
}

// Remove は楽観的に一覧から外し、取り消し可能期間の後に削除を確定する。
// 一覧に見つからない場合は一度だけストアから読み直す。
func (s *FavoriteSessions) Remove(ctx context.Context, userID, placeID string) (PendingDeletion, error) {
	if err := requireUser(userID); err != nil {
		return PendingDeletion{}, err
	}
	if placeID == "" {
		return PendingDeletion{}, &domain.ValidationError{Field: "placeId", Message: "店舗IDが指定されていません"}
	}

	c, _ := s.controller(userID)
	pending, err := c.Remove(placeID)
	if !errors.Is(err, ErrFavoriteNotListed) {
		return pending, err
	}

	items, listErr := s.favorites.List(ctx, userID)
	if listErr != nil {
		return PendingDeletion{}, listErr
	}
	c.Replace(items)
	return c.Remove(placeID)
}

// Add は保留中の削除を取り消してから登録する。取り消せた場合はストアの行が残っているため
// 既存エントリと false を返す。
func (s *FavoriteSessions) Add(ctx context.Context, userID string, ref domain.PlaceRef) (*domain.FavoriteEntry, bool, error) {
	if err := requireUser(userID); err != nil {
		return nil, false, err
	}
	if err := ref.Validate(); err != nil {
		return nil, false, err
	}
	if c := s.existing(userID); c != nil {
		entry, restored, err := c.Reclaim(ctx, ref.PlaceID)
		if err != nil {
			return nil, false, err
		}
		if restored {
			return &entry, false, nil
		}
	}
	return s.favorites.Add(ctx, userID, ref)
}

// Toggle は表示上の状態を基準に切り替える。削除が保留中またはコミット中の店舗は
// お気に入りでないものとして扱い、追加側に倒す。
func (s *FavoriteSessions) Toggle(ctx context.Context, userID string, ref domain.PlaceRef) (ToggleResult, error) {
	if err := requireUser(userID); err != nil {
		return ToggleResult{}, err
	}
	c := s.existing(userID)
	if c == nil || !c.Hidden(ref.PlaceID) {
		return s.favorites.Toggle(ctx, userID, ref)
	}

	entry, restored, err := c.Reclaim(ctx, ref.PlaceID)
	if err != nil {
		return ToggleResult{}, err
	}
	if restored {
		return ToggleResult{Action: ToggleAdded, RecordID: entry.RecordID}, nil
	}
	added, _, err := s.favorites.Add(ctx, userID, ref)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Action: ToggleAdded, RecordID: added.RecordID}, nil
}

// IsFavorite treats a place whose removal is pending or committing as not a favorite.
func (s *FavoriteSessions) IsFavorite(ctx context.Context, userID, placeID string) (bool, error) {
	if c := s.existing(userID); c != nil && c.Hidden(placeID) {
		return false, nil
	}
	return s.favorites.IsFavorite(ctx, userID, placeID)
}

func (s *FavoriteSessions) existing(userID string) *UndoController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controllers[userID]
}

// Undo restores the newest pending removal and returns the list as displayed afterwards.
func (s *FavoriteSessions) Undo(userID string) (bool, []domain.FavoriteEntry) {
	c := s.existing(userID)
	if c == nil {
		return false, []domain.FavoriteEntry{}
	}
	restored := c.Undo()
	return restored, c.Items()
}

// Pending reports the user's removal waiting for its commit, if any.
func (s *FavoriteSessions) Pending(userID string) (PendingDeletion, bool) {
	c := s.existing(userID)
	if c == nil {
		return PendingDeletion{}, false
	}
	return c.Pending()
}

// Close discards the user's controller. A pending removal is dropped without a remote delete.
func (s *FavoriteSessions) Close(userID string) {
	s.mu.Lock()
	c, ok := s.controllers[userID]
	delete(s.controllers, userID)
	s.mu.Unlock()
	if ok {
		c.Close()
	}
}

// CloseAll tears down every controller. Used on shutdown.
func (s *FavoriteSessions) CloseAll() {
	s.mu.Lock()
	controllers := s.controllers
	s.controllers = make(map[string]*UndoController)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range controllers {
		wg.Add(1)
		go func(c *UndoController) {
			defer wg.Done()
			c.Close()
		}(c)
	}
	wg.Wait()
}
