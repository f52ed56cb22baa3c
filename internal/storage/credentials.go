package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	miniocred "github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/singleflight"
)

// Credential is the service-held upstream credential (app identity, never an
// end-user identity). A zero Expiry means the credential does not expire.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiry          time.Time
}

// CredentialSource fetches a fresh credential. Implementations may call an
// STS-style endpoint; the static env-backed source below is the default.
type CredentialSource interface {
	Fetch(ctx context.Context) (Credential, error)
}

// StaticSource returns fixed keys from configuration. It never expires.
type StaticSource struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

func (s StaticSource) Fetch(ctx context.Context) (Credential, error) {
	if s.AccessKeyID == "" || s.SecretAccessKey == "" {
		return Credential{}, fmt.Errorf("storage credentials are required")
	}
	return Credential{
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
	}, nil
}

// CredentialCache caches the service credential and refreshes it ahead of
// expiry. Refreshes go through singleflight: when many concurrent requests
// observe a stale credential, exactly one fetch proceeds and the rest wait
// for its result. Acquisition never happens synchronously on a warm path.
type CredentialCache struct {
	src  CredentialSource
	skew time.Duration
	now  func() time.Time

	sf singleflight.Group
	mu sync.RWMutex
	// cur.AccessKeyID == "" marks the cache cold.
	cur Credential
}

// NewCredentialCache builds a cache refreshing skew ahead of expiry.
func NewCredentialCache(src CredentialSource, skew time.Duration) *CredentialCache {
	return &CredentialCache{src: src, skew: skew, now: time.Now}
}

// Get returns a valid credential, refreshing through singleflight if the
// cached one is absent, expired, or inside the refresh skew.
func (c *CredentialCache) Get(ctx context.Context) (Credential, error) {
	c.mu.RLock()
	cur := c.cur
	c.mu.RUnlock()

	if c.valid(cur) {
		return cur, nil
	}

	v, err, _ := c.sf.Do("refresh", func() (any, error) {
		// Another waiter may have completed the refresh already.
		c.mu.RLock()
		cur := c.cur
		c.mu.RUnlock()
		if c.valid(cur) {
			return cur, nil
		}

		fresh, err := c.src.Fetch(ctx)
		if err != nil {
			return Credential{}, fmt.Errorf("fetch credential: %w", err)
		}
		c.mu.Lock()
		c.cur = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

func (c *CredentialCache) valid(cred Credential) bool {
	if cred.AccessKeyID == "" {
		return false
	}
	if cred.Expiry.IsZero() {
		return true
	}
	return c.now().Add(c.skew).Before(cred.Expiry)
}

// provider adapts the cache to minio's credentials.Provider so the upstream
// client always signs with the cached service credential.
type provider struct {
	cache *CredentialCache
}

var _ miniocred.Provider = (*provider)(nil)

// NewMinioCredentials wraps the cache for use in minio.Options.Creds.
func NewMinioCredentials(cache *CredentialCache) *miniocred.Credentials {
	return miniocred.New(&provider{cache: cache})
}

func (p *provider) Retrieve() (miniocred.Value, error) {
	cred, err := p.cache.Get(context.Background())
	if err != nil {
		return miniocred.Value{}, err
	}
	return miniocred.Value{
		AccessKeyID:     cred.AccessKeyID,
		SecretAccessKey: cred.SecretAccessKey,
		SessionToken:    cred.SessionToken,
		SignerType:      miniocred.SignatureV4,
	}, nil
}

func (p *provider) IsExpired() bool {
	p.cache.mu.RLock()
	cur := p.cache.cur
	p.cache.mu.RUnlock()
	return !p.cache.valid(cur)
}
