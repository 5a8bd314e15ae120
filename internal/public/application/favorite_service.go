package application

import (
	"context"
	"strings"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type favoriteService struct {
	repo FavoriteRepository
	now  func() time.Time
}

// NewFavoriteService creates the favorites use-case service.
func NewFavoriteService(repo FavoriteRepository) FavoriteService {
	return &favoriteService{repo: repo, now: time.Now}
}

// Add は登録済みかを先に問い合わせてから追加する。既存の場合は既存エントリと false を返す。
func (s *favoriteService) Add(ctx context.Context, userID string, ref domain.PlaceRef) (*domain.FavoriteEntry, bool, error) {
	if err := requireUser(userID); err != nil {
		return nil, false, err
	}
	if err := ref.Validate(); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByPlace(ctx, userID, ref.PlaceID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	entry := &domain.FavoriteEntry{
		UserID:    userID,
		PlaceID:   ref.PlaceID,
		Name:      strings.TrimSpace(ref.Name),
		Location:  ref.Location,
		Address:   strings.TrimSpace(ref.Address),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (s *favoriteService) Toggle(ctx context.Context, userID string, ref domain.PlaceRef) (ToggleResult, error) {
	if err := requireUser(userID); err != nil {
		return ToggleResult{}, err
	}
	if ref.PlaceID == "" {
		return ToggleResult{}, &domain.ValidationError{Field: "placeId", Message: "required"}
	}

	existing, err := s.repo.FindByPlace(ctx, userID, ref.PlaceID)
	if err != nil {
		return ToggleResult{}, err
	}
	if existing != nil {
		if err := s.repo.Delete(ctx, userID, ref.PlaceID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Action: ToggleRemoved, RecordID: existing.RecordID}, nil
	}

	entry, _, err := s.Add(ctx, userID, ref)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Action: ToggleAdded, RecordID: entry.RecordID}, nil
}

func (s *favoriteService) IsFavorite(ctx context.Context, userID, placeID string) (bool, error) {
	if userID == "" || placeID == "" {
		return false, nil
	}
	existing, err := s.repo.FindByPlace(ctx, userID, placeID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *favoriteService) List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	if userID == "" {
		return []domain.FavoriteEntry{}, nil
	}
	return s.repo.List(ctx, userID)
}

func (s *favoriteService) Remove(ctx context.Context, userID, placeID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, placeID)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &domain.ValidationError{Field: "userId", Message: "ログインが必要です"}
	}
	return nil
}
