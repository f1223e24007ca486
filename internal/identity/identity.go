// Package identity resolves the current user id for catalog.Identity.
//
// A signed-in session is identified by the Supabase access token's subject.
// Without a session the app falls back to a stable per-device id kept in
// local storage.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dshills/julook/internal/catalog"
)

// DeviceKey is the local key holding the device id.
const DeviceKey = "identity.device_id"

// TokenProvider reads the user id from a Supabase access token.
type TokenProvider struct {
	token  string
	secret []byte
}

var _ catalog.Identity = (*TokenProvider)(nil)

// NewTokenProvider returns a provider for token. When secret is non-empty
// the HMAC signature and expiry are verified; otherwise the claims are read
// unverified.
func NewTokenProvider(token, secret string) *TokenProvider {
	p := &TokenProvider{token: strings.TrimSpace(token)}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// UserID returns the token subject, or catalog.ErrNoSession when there is
// no token.
func (p *TokenProvider) UserID(context.Context) (string, error) {
	if p.token == "" {
		return "", catalog.ErrNoSession
	}
	claims := jwt.MapClaims{}
	var err error
	if p.secret != nil {
		_, err = jwt.ParseWithClaims(p.token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return p.secret, nil
		})
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(p.token, claims)
	}
	if err != nil {
		return "", fmt.Errorf("identity: parse token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("identity: token has no subject: %w", catalog.ErrNoSession)
	}
	return sub, nil
}

// KeyValue is the subset of catalog.Local the device provider needs.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// DeviceProvider returns a per-device id, created on first use.
type DeviceProvider struct {
	kv KeyValue

	mu sync.Mutex
	id string
}

var _ catalog.Identity = (*DeviceProvider)(nil)

// NewDeviceProvider returns a provider backed by kv.
func NewDeviceProvider(kv KeyValue) *DeviceProvider {
	return &DeviceProvider{kv: kv}
}

// UserID returns the device id, generating and storing one if needed.
func (p *DeviceProvider) UserID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" {
		return p.id, nil
	}
	id, ok, err := p.kv.Get(ctx, DeviceKey)
	if err != nil {
		return "", fmt.Errorf("identity: load device id: %w", err)
	}
	if !ok || id == "" {
		id = uuid.NewString()
		if err := p.kv.Set(ctx, DeviceKey, id); err != nil {
			return "", fmt.Errorf("identity: store device id: %w", err)
		}
	}
	p.id = id
	return id, nil
}

// Chain tries providers in order, skipping those without a session.
type Chain []catalog.Identity

// UserID returns the first id any provider resolves.
func (c Chain) UserID(ctx context.Context) (string, error) {
	for _, p := range c {
		id, err := p.UserID(ctx)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, catalog.ErrNoSession) {
			return "", err
		}
	}
	return "", catalog.ErrNoSession
}
