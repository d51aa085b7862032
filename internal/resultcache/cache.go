// Package resultcache reuses analysis results keyed by owner and content
// fingerprint. Entries are retained indefinitely; there is no eviction.
package resultcache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"pathpilot-backend/internal/shared/metrics"
	"pathpilot-backend/internal/shared/telemetry"
)

// ErrEmptyPayload is returned when storing a result with no fields.
var ErrEmptyPayload = errors.New("result cache: empty payload")

// Entry is one cached analysis, scoped to a single owner.
type Entry struct {
	OwnerID     int64
	Fingerprint string
	ArtifactID  string
	Payload     map[string]any
	CreatedAt   time.Time
}

// Store persists cache entries.
type Store interface {
	// LatestAnalyzed returns the newest cached entry for (ownerID, fingerprint).
	LatestAnalyzed(ctx context.Context, ownerID int64, fingerprint string) (Entry, bool, error)
	SaveAnalyzed(ctx context.Context, entry Entry) error
}

// Cache adds staleness checks and in-flight coalescing over a Store.
type Cache struct {
	Name    string
	Entries Store
	// Required lists payload keys an entry must carry to be served.
	Required []string

	group singleflight.Group
}

// Lookup returns the cached entry, or nil on a miss or a stale entry.
func (c *Cache) Lookup(ctx context.Context, ownerID int64, fingerprint string) (*Entry, error) {
	if c == nil || c.Entries == nil || fingerprint == "" {
		return nil, nil
	}
	entry, ok, err := c.Entries.LatestAnalyzed(ctx, ownerID, fingerprint)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncCacheMiss()
		return nil, nil
	}
	if missing := c.missingField(entry.Payload); missing != "" {
		metrics.IncCacheStale()
		telemetry.Info("cache_entry_stale", map[string]any{
			"cache":         c.Name,
			"user_id":       telemetry.OwnerField(ownerID),
			"artifact_id":   entry.ArtifactID,
			"fingerprint":   shortFingerprint(fingerprint),
			"missing_field": missing,
		})
		return nil, nil
	}
	metrics.IncCacheHit()
	telemetry.Info("cache_hit", map[string]any{
		"cache":       c.Name,
		"user_id":     telemetry.OwnerField(ownerID),
		"artifact_id": entry.ArtifactID,
		"fingerprint": shortFingerprint(fingerprint),
	})
	return &entry, nil
}

// Store records a successful result. Last write wins.
func (c *Cache) Store(ctx context.Context, entry Entry) error {
	if c == nil || c.Entries == nil {
		return nil
	}
	if len(entry.Payload) == 0 {
		return ErrEmptyPayload
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return c.Entries.SaveAnalyzed(ctx, entry)
}

// Do runs fn once per (ownerID, fingerprint) among concurrent callers; the
// others wait and receive the same value. shared reports whether the value
// was delivered to more than one caller.
func (c *Cache) Do(ownerID int64, fingerprint string, fn func() (any, error)) (v any, shared bool, err error) {
	if fingerprint == "" {
		v, err = fn()
		return v, false, err
	}
	key := strconv.FormatInt(ownerID, 10) + ":" + fingerprint
	v, err, shared = c.group.Do(key, fn)
	return v, shared, err
}

func (c *Cache) missingField(payload map[string]any) string {
	for _, key := range c.Required {
		if _, ok := payload[key]; !ok {
			return key
		}
	}
	return ""
}

func shortFingerprint(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}
