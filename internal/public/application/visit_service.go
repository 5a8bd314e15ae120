package application

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type visitService struct {
	repo VisitRepository
	now  func() time.Time
}

// NewVisitService creates the check-in use-case service.
func NewVisitService(repo VisitRepository) VisitService {
	return &visitService{repo: repo, now: time.Now}
}

func (s *visitService) Record(ctx context.Context, userID string, ref domain.PlaceRef) (*domain.VisitEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	entry := &domain.VisitEntry{
		UserID:    userID,
		PlaceID:   ref.PlaceID,
		Name:      strings.TrimSpace(ref.Name),
		Location:  ref.Location,
		Address:   strings.TrimSpace(ref.Address),
		VisitedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// History は visitedAt の降順で返す。並び順はリポジトリに任せず、ここでも保証する。
func (s *visitService) History(ctx context.Context, userID string) ([]domain.VisitEntry, error) {
	if userID == "" {
		return []domain.VisitEntry{}, nil
	}
	visits, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortVisits(visits)
	return visits, nil
}

func sortVisits(visits []domain.VisitEntry) {
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].VisitedAt.After(visits[j].VisitedAt)
	})
}
