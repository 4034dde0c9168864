package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/switzea/portal/pkg/cache"
)

// ErrStaleSignIn is returned when an ID token is too old to mint a session cookie.
var ErrStaleSignIn = errors.New("recent sign-in required")

// maxSignInAge bounds how long after sign-in an ID token may be exchanged.
const maxSignInAge = 5 * time.Minute

// TokenVerifier is the subset of *auth.Client the provider uses.
type TokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseProviderConfig configures a FirebaseProvider.
type FirebaseProviderConfig struct {
	Verifier TokenVerifier
	// Cache holds verified sessions keyed by credential hash. Optional.
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

type listener struct {
	key string
	uid string
	fn  func(*Session)
}

// FirebaseProvider resolves the credential bound to a request context into a
// Session. Each subscription receives exactly one notification for the
// verification result, and a later nil notification if its user is signed out
// while it is still subscribed.
type FirebaseProvider struct {
	verifier TokenVerifier
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	listeners map[*listener]struct{}
}

// NewFirebaseProvider creates a provider around a Firebase Auth client.
func NewFirebaseProvider(cfg FirebaseProviderConfig) (*FirebaseProvider, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("identity: token verifier is required")
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &FirebaseProvider{
		verifier:  cfg.Verifier,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		logger:    cfg.Logger,
		now:       time.Now,
		listeners: make(map[*listener]struct{}),
	}, nil
}

// OnAuthStateChanged implements StateSource.
func (p *FirebaseProvider) OnAuthStateChanged(ctx context.Context, fn func(*Session)) func() {
	cred, ok := CredentialFromContext(ctx)
	l := &listener{fn: fn}
	if ok {
		l.key = cred.key()
	}

	p.mu.Lock()
	p.listeners[l] = struct{}{}
	p.mu.Unlock()

	go func() {
		var s *Session
		if ok {
			s = p.resolve(ctx, cred)
		}
		if ctx.Err() != nil {
			return
		}
		p.deliver(l, s)
	}()

	return func() {
		p.mu.Lock()
		delete(p.listeners, l)
		p.mu.Unlock()
	}
}

// SignOut revokes the refresh tokens of the session bound to ctx and drops the
// cached verification of its credential. Cached sessions of the user's other
// credentials are invalidated through a revocation marker.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	s := SessionFromContext(ctx)
	if s == nil || s.UID == "" {
		return ErrNoSession
	}
	if err := p.verifier.RevokeRefreshTokens(ctx, s.UID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens for user '%s': %w", s.UID, err)
	}
	p.markRevoked(ctx, s.UID)

	var key string
	if cred, ok := CredentialFromContext(ctx); ok {
		key = cred.key()
		if err := p.cache.Delete(ctx, key); err != nil {
			p.logger.Warn("Failed to evict cached session", zap.String("uid", s.UID), zap.Error(err))
		}
	}

	p.mu.Lock()
	var signedOut []*listener
	for l := range p.listeners {
		if (key != "" && l.key == key) || l.uid == s.UID {
			signedOut = append(signedOut, l)
		}
	}
	p.mu.Unlock()
	for _, l := range signedOut {
		p.deliver(l, nil)
	}
	return nil
}

// ExchangeIDToken turns a freshly issued ID token into a session cookie.
func (p *FirebaseProvider) ExchangeIDToken(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	token, err := p.verifier.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("invalid ID token: %w", err)
	}
	if token.AuthTime > 0 && p.now().Sub(time.Unix(token.AuthTime, 0)) > maxSignInAge {
		return "", ErrStaleSignIn
	}
	cookie, err := p.verifier.SessionCookie(ctx, idToken, expiresIn)
	if err != nil {
		return "", fmt.Errorf("failed to create session cookie for user '%s': %w", token.UID, err)
	}
	p.logger.Info("Session cookie issued", zap.String("uid", token.UID), zap.Duration("expires_in", expiresIn))
	return cookie, nil
}

func (p *FirebaseProvider) deliver(l *listener, s *Session) {
	p.mu.Lock()
	_, subscribed := p.listeners[l]
	if subscribed && s != nil {
		l.uid = s.UID
	}
	p.mu.Unlock()
	if subscribed {
		l.fn(s)
	}
}

func (p *FirebaseProvider) resolve(ctx context.Context, cred Credential) *Session {
	key := cred.key()
	if s := p.cached(ctx, key); s != nil {
		return s
	}

	var (
		token *auth.Token
		err   error
	)
	switch cred.Kind {
	case SessionCookie:
		token, err = p.verifier.VerifySessionCookieAndCheckRevoked(ctx, cred.Value)
	case IDToken:
		token, err = p.verifier.VerifyIDTokenAndCheckRevoked(ctx, cred.Value)
	default:
		err = fmt.Errorf("unsupported credential kind %d", cred.Kind)
	}
	if err != nil {
		p.logger.Info("Credential rejected", zap.Stringer("kind", cred.Kind), zap.Error(err))
		return nil
	}

	s := sessionFromToken(token)
	p.store(ctx, key, s)
	return s
}

func (p *FirebaseProvider) cached(ctx context.Context, key string) *Session {
	raw, found, err := p.cache.Get(ctx, key)
	if err != nil || !found {
		return nil
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		p.logger.Warn("Discarding unreadable cached session", zap.Error(err))
		return nil
	}
	if !s.ExpiresAt.IsZero() && !p.now().Before(s.ExpiresAt) {
		return nil
	}
	if p.revokedSince(ctx, &s) {
		if err := p.cache.Delete(ctx, key); err != nil {
			p.logger.Warn("Failed to evict revoked session", zap.String("uid", s.UID), zap.Error(err))
		}
		return nil
	}
	return &s
}

func revocationKey(uid string) string {
	return "revoked:" + uid
}

// markRevoked records when uid was signed out. It outlives every session
// cached before it, since entries never live longer than cacheTTL.
func (p *FirebaseProvider) markRevoked(ctx context.Context, uid string) {
	if p.cacheTTL <= 0 {
		return
	}
	at := strconv.FormatInt(p.now().Unix(), 10)
	if err := p.cache.Set(ctx, revocationKey(uid), at, p.cacheTTL); err != nil {
		p.logger.Warn("Failed to record session revocation", zap.String("uid", uid), zap.Error(err))
	}
}

// revokedSince reports whether s signed in before its user was last signed out.
// An unreadable marker counts as revoked so the credential is verified again.
func (p *FirebaseProvider) revokedSince(ctx context.Context, s *Session) bool {
	raw, found, err := p.cache.Get(ctx, revocationKey(s.UID))
	if err != nil {
		p.logger.Warn("Failed to read session revocation", zap.String("uid", s.UID), zap.Error(err))
		return true
	}
	if !found {
		return false
	}
	at, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	return s.AuthTime.Unix() < at
}

func (p *FirebaseProvider) store(ctx context.Context, key string, s *Session) {
	ttl := p.cacheTTL
	if !s.ExpiresAt.IsZero() {
		if left := s.ExpiresAt.Sub(p.now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, string(raw), ttl); err != nil {
		p.logger.Warn("Failed to cache session", zap.String("uid", s.UID), zap.Error(err))
	}
}

func sessionFromToken(token *auth.Token) *Session {
	s := &Session{UID: token.UID, Authenticated: true}
	if token.AuthTime > 0 {
		s.AuthTime = time.Unix(token.AuthTime, 0).UTC()
	}
	if token.Expires > 0 {
		s.ExpiresAt = time.Unix(token.Expires, 0).UTC()
	}
	if email, ok := token.Claims["email"].(string); ok {
		s.Email = email
	}
	return s
}
