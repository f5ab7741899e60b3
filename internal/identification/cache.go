package identification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"cdfinder/internal/logging"
	"cdfinder/internal/services/llm"
)

// CachedIdentifier memoizes IdentifyImage results by image digest. Spec
// lookups always go to the provider.
type CachedIdentifier struct {
	next   Service
	cache  *cache.Cache
	logger *slog.Logger
}

var _ Service = (*CachedIdentifier)(nil)

// NewCachedIdentifier wraps next with a TTL cache. A non-positive ttl
// returns next unchanged.
func NewCachedIdentifier(next Service, ttl time.Duration, logger *slog.Logger) Service {
	if ttl <= 0 || next == nil {
		return next
	}
	return &CachedIdentifier{
		next:   next,
		cache:  cache.New(ttl, ttl*2),
		logger: logging.NewComponentLogger(logger, "identify-cache"),
	}
}

type cachedLabel struct {
	label    string
	notFound bool
}

// IdentifyImage implements Service. Misses (ErrNotFound) are cached too;
// transport errors are not.
func (c *CachedIdentifier) IdentifyImage(ctx context.Context, img llm.Image) (string, error) {
	key := imageDigest(img)
	if cached, found := c.cache.Get(key); found {
		entry := cached.(cachedLabel)
		c.logger.Debug("identification cache hit", logging.String("digest", key[:12]))
		if entry.notFound {
			return "", ErrNotFound
		}
		return entry.label, nil
	}
	label, err := c.next.IdentifyImage(ctx, img)
	switch {
	case err == nil:
		c.cache.Set(key, cachedLabel{label: label}, cache.DefaultExpiration)
	case errors.Is(err, ErrNotFound):
		c.cache.Set(key, cachedLabel{notFound: true}, cache.DefaultExpiration)
	}
	return label, err
}

// LookupSpecs implements Service.
func (c *CachedIdentifier) LookupSpecs(ctx context.Context, label string) (Specs, error) {
	return c.next.LookupSpecs(ctx, label)
}

// Len reports the number of cached identifications.
func (c *CachedIdentifier) Len() int {
	return c.cache.ItemCount()
}

func imageDigest(img llm.Image) string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}
