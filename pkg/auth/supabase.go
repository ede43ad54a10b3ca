package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"
)

// SupabaseVerifier asks the Supabase auth server who owns a token. Results
// are cached until cacheTTL elapses so each request does not cost a round
// trip.
type SupabaseVerifier struct {
	client   *supabase.Client
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cachedPrincipal
	now   func() time.Time
}

type cachedPrincipal struct {
	principal Principal
	expires   time.Time
}

// NewSupabaseVerifier creates a verifier backed by client.
func NewSupabaseVerifier(client *supabase.Client, cacheTTL time.Duration) *SupabaseVerifier {
	return &SupabaseVerifier{
		client:   client,
		cacheTTL: cacheTTL,
		cache:    make(map[string]cachedPrincipal),
		now:      time.Now,
	}
}

// Verify implements Verifier.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	if p, ok := v.cached(token); ok {
		return &p, nil
	}

	// GetUser does not accept a context; honour cancellation before the call.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if user == nil {
		return nil, errors.New("supabase returned no user")
	}

	p := Principal{UserID: user.ID.String(), Email: user.Email, Role: user.Role}
	if v.cacheTTL > 0 {
		v.mu.Lock()
		v.cache[token] = cachedPrincipal{principal: p, expires: v.now().Add(v.cacheTTL)}
		v.mu.Unlock()
	}
	return &p, nil
}

func (v *SupabaseVerifier) cached(token string) (Principal, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.cache[token]
	if !ok {
		return Principal{}, false
	}
	if v.now().After(c.expires) {
		delete(v.cache, token)
		return Principal{}, false
	}
	return c.principal, true
}
