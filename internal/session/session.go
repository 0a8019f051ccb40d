// Package session persists the signed-in salesman's token and profile
// between CLI invocations.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/utafrali/salesonboard/internal/domain"
)

// Fixed key names of the four session entries.
const (
	KeyAuthToken    = "authToken"
	KeyUser         = "user"
	KeyCompanyID    = "companyId"
	KeyRefreshToken = "refreshToken"
)

// Keys lists every session key in removal order.
var Keys = []string{KeyAuthToken, KeyUser, KeyCompanyID, KeyRefreshToken}

var (
	// ErrKeyNotFound is returned by KV.Get for an absent key.
	ErrKeyNotFound = errors.New("session key not found")

	// ErrIncomplete is returned by Save when the token or the user is missing.
	ErrIncomplete = errors.New("session requires both auth token and user")
)

// KV is the device key/value storage behind the session.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	// SetMany writes every pair or none of them.
	SetMany(ctx context.Context, pairs map[string]string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Session is the cached authentication state.
type Session struct {
	AuthToken    string
	User         *domain.User
	CompanyID    string
	RefreshToken string
}

// Repository is the single access point to session state.
type Repository struct {
	kv KV
}

// NewRepository creates a session repository over kv.
func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Token returns the cached auth token, or "" when none is stored.
func (r *Repository) Token(ctx context.Context) (string, error) {
	return r.get(ctx, KeyAuthToken)
}

// User returns the cached user, or nil when none is stored. Malformed JSON
// is reported as an error.
func (r *Repository) User(ctx context.Context) (*domain.User, error) {
	raw, err := r.get(ctx, KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &u, nil
}

// Load reads all session entries. Absent entries are left zero.
func (r *Repository) Load(ctx context.Context) (*Session, error) {
	var s Session
	var err error
	if s.AuthToken, err = r.get(ctx, KeyAuthToken); err != nil {
		return nil, err
	}
	if s.User, err = r.User(ctx); err != nil {
		return nil, err
	}
	if s.CompanyID, err = r.get(ctx, KeyCompanyID); err != nil {
		return nil, err
	}
	if s.RefreshToken, err = r.get(ctx, KeyRefreshToken); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes all four keys as one unit, replacing whatever a previous login
// left behind. The token and the user are required; an unset company id or
// refresh token is stored as "".
func (r *Repository) Save(ctx context.Context, s *Session) error {
	if s == nil || s.AuthToken == "" || s.User == nil {
		return ErrIncomplete
	}
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	pairs := map[string]string{
		KeyAuthToken:    s.AuthToken,
		KeyUser:         string(user),
		KeyCompanyID:    s.CompanyID,
		KeyRefreshToken: s.RefreshToken,
	}
	if err := r.kv.SetMany(ctx, pairs); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes every session key. A failed removal does not stop the
// remaining ones; all failures are joined into the returned error.
func (r *Repository) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range Keys {
		if err := r.kv.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks the underlying storage.
func (r *Repository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

func (r *Repository) get(ctx context.Context, key string) (string, error) {
	v, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}
