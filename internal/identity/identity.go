// Package identity issues and verifies the anonymous session tokens used by the API.
// identity パッケージは匿名サインインのトークン発行・検証・失効と、サインイン状態の変更通知を担う。
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is used when Config.TTL is zero.
const DefaultTokenTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidToken covers malformed, expired, foreign and revoked tokens.
	ErrInvalidToken = errors.New("アクセストークンが無効です")
	// ErrNotConfigured is returned by New without any signing key.
	ErrNotConfigured = errors.New("認証設定が構成されていません")
)

// Key is an issuer/secret pair. The first key of Config.Keys signs new tokens, all keys verify.
type Key struct {
	Issuer string
	Secret []byte
}

// RevocationStore remembers signed-out token ids until they would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Config defines dependencies required by Service.
type Config struct {
	Keys        []Key
	Audience    string
	TTL         time.Duration
	Revocations RevocationStore
	Logger      *log.Logger
	Now         func() time.Time
}

// Session is the result of a sign-in.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal is a verified caller.
type Principal struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
	Anonymous bool
}

// EventKind distinguishes sign-in state changes.
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event is delivered to subscribers after the state change has been applied.
type Event struct {
	Kind   EventKind
	UserID string
	At     time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Anonymous bool `json:"anonymous,omitempty"`
}

// Service は匿名ユーザーのセッションを管理する。サインイン状態の変化はここだけから通知される。
type Service struct {
	keys        []Key
	audience    string
	ttl         time.Duration
	revocations RevocationStore
	logger      *log.Logger
	now         func() time.Time

	mu          sync.RWMutex
	subscribers map[int]func(Event)
	nextSubID   int
}

// New validates cfg and builds a Service.
func New(cfg Config) (*Service, error) {
	keys := make([]Key, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		if len(k.Secret) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, ErrNotConfigured
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		keys:        keys,
		audience:    cfg.Audience,
		ttl:         cfg.TTL,
		revocations: cfg.Revocations,
		logger:      cfg.Logger,
		now:         cfg.Now,
		subscribers: make(map[int]func(Event)),
	}, nil
}

// SignInAnonymously issues a token for a brand-new anonymous user.
func (s *Service) SignInAnonymously(_ context.Context) (*Session, error) {
	now := s.now()
	userID := uuid.NewString()
	signing := s.keys[0]

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    signing.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Anonymous: true,
	}
	if s.audience != "" {
		c.Audience = jwt.ClaimStrings{s.audience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(signing.Secret)
	if err != nil {
		return nil, fmt.Errorf("トークンの署名に失敗: %w", err)
	}

	s.publish(Event{Kind: SignedIn, UserID: userID, At: now})
	return &Session{Token: token, UserID: userID, ExpiresAt: c.ExpiresAt.Time}, nil
}

// Verify は登録済みの鍵を順番に試し、署名・Issuer・Audience・有効期限・失効状態を確認する。
func (s *Service) Verify(ctx context.Context, tokenString string) (*Principal, error) {
	c, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil && c.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("トークン失効状態の確認に失敗: %w", err)
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	p := &Principal{UserID: c.Subject, TokenID: c.ID, Anonymous: c.Anonymous}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}

// SignOut revokes the token and notifies subscribers. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, tokenString string) error {
	p, err := s.Verify(ctx, tokenString)
	if err != nil {
		return err
	}

	if s.revocations != nil && p.TokenID != "" {
		expiresAt := p.ExpiresAt
		if expiresAt.IsZero() {
			expiresAt = s.now().Add(s.ttl)
		}
		if err := s.revocations.Revoke(ctx, p.TokenID, p.UserID, expiresAt); err != nil {
			return fmt.Errorf("トークンの失効に失敗: %w", err)
		}
	}

	s.publish(Event{Kind: SignedOut, UserID: p.UserID, At: s.now()})
	return nil
}

// Subscribe registers fn for sign-in state changes. The returned func removes it.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Service) publish(ev Event) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subscribers[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Service) parse(tokenString string) (*claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	now := s.now()
	for _, key := range s.keys {
		c := &claims{}
		token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return key.Secret, nil
		}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(func() time.Time { return now }))
		if err != nil || !token.Valid {
			continue
		}

		if key.Issuer != "" && c.Issuer != key.Issuer {
			continue
		}
		if c.Subject == "" {
			continue
		}
		if s.audience != "" && !slices.Contains(c.Audience, s.audience) {
			continue
		}
		return c, nil
	}

	if s.logger != nil {
		s.logger.Printf("トークン検証に失敗しました")
	}
	return nil, ErrInvalidToken
}
