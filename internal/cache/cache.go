// Package cache implements the two-tier validation cache: an in-memory
// map written through to the SQLite store. Lookups check memory first; a
// persistent hit is promoted back into memory. Entries are never served
// past their TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/database"
)

// Tier names one cache namespace with its own TTL.
type Tier string

const (
	TierValidationResult    Tier = "validation_result"
	TierContentMetrics      Tier = "content_metrics"
	TierKeywordAnalysis     Tier = "keyword_analysis"
	TierReadabilityAnalysis Tier = "readability_analysis"
	TierTitleUniqueness     Tier = "title_uniqueness"
)

type memEntry struct {
	value       string
	contentHash string
	insertedAt  time.Time
	ttl         time.Duration
}

// Cache is the two-tier memoization layer. Not safe for concurrent use;
// the session loop is single-threaded.
type Cache struct {
	db      *database.DB
	enabled bool
	mem     map[string]memEntry
	ttls    map[Tier]time.Duration

	// now is injectable so tests can control expiry.
	now func() time.Time

	hits   int
	misses int
}

// New creates a cache backed by the given store. A nil db disables the
// persistent tier; the memory tier still works.
func New(db *database.DB, cfg config.Cache) *Cache {
	return &Cache{
		db:      db,
		enabled: cfg.Enabled,
		mem:     make(map[string]memEntry),
		ttls: map[Tier]time.Duration{
			TierValidationResult:    time.Duration(cfg.ValidationTTLMinutes) * time.Minute,
			TierContentMetrics:      time.Duration(cfg.MetricsTTLMinutes) * time.Minute,
			TierKeywordAnalysis:     time.Duration(cfg.KeywordTTLMinutes) * time.Minute,
			TierReadabilityAnalysis: time.Duration(cfg.ReadabilityTTLMinutes) * time.Minute,
			TierTitleUniqueness:     time.Duration(cfg.TitleUniquenessTTLMinutes) * time.Minute,
		},
		now: time.Now,
	}
}

// Key builds a stable cache key from its parts.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// TTL returns the configured TTL for a tier.
func (c *Cache) TTL(tier Tier) time.Duration {
	if ttl, ok := c.ttls[tier]; ok && ttl > 0 {
		return ttl
	}
	return 30 * time.Minute
}

// Get returns the raw cached value for a tier and key, or false on miss.
func (c *Cache) Get(tier Tier, key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	full := string(tier) + ":" + key
	now := c.now()

	if e, ok := c.mem[full]; ok {
		if now.Sub(e.insertedAt) < e.ttl {
			c.hits++
			return e.value, true
		}
		delete(c.mem, full)
	}

	if c.db == nil {
		c.misses++
		return "", false
	}

	row, err := c.db.GetCacheEntry(string(tier), key)
	if err != nil {
		log.Printf("cache: persistent lookup failed: %v", err)
		c.misses++
		return "", false
	}
	if row == nil || row.Expired(now) {
		c.misses++
		return "", false
	}

	// Promote into memory with the remaining lifetime.
	c.mem[full] = memEntry{
		value:       row.Value,
		contentHash: row.ContentHash,
		insertedAt:  row.InsertedAt,
		ttl:         row.TTL,
	}
	c.hits++
	return row.Value, true
}

// Set writes a value to both tiers with the tier's default TTL. The
// content hash is kept so per-content purges can find the entry.
func (c *Cache) Set(tier Tier, key, value, contentHash string) {
	if !c.enabled {
		return
	}
	ttl := c.TTL(tier)
	now := c.now()

	c.mem[string(tier)+":"+key] = memEntry{
		value:       value,
		contentHash: contentHash,
		insertedAt:  now,
		ttl:         ttl,
	}

	if c.db == nil {
		return
	}
	err := c.db.SetCacheEntry(database.CacheRow{
		Tier:        string(tier),
		Key:         key,
		ContentHash: contentHash,
		Value:       value,
		InsertedAt:  now,
		TTL:         ttl,
	})
	if err != nil {
		log.Printf("cache: persistent write failed: %v", err)
	}
}

// GetJSON decodes a cached value into out. A decode failure counts as a
// miss and evicts the corrupt entry.
func (c *Cache) GetJSON(tier Tier, key string, out any) bool {
	raw, ok := c.Get(tier, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("cache: dropping undecodable entry in %s: %v", tier, err)
		c.Invalidate(tier, key)
		return false
	}
	return true
}

// SetJSON encodes a value and stores it.
func (c *Cache) SetJSON(tier Tier, key string, value any, contentHash string) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encoding value for %s failed: %v", tier, err)
		return
	}
	c.Set(tier, key, string(data), contentHash)
}

// Invalidate removes one entry from both tiers.
func (c *Cache) Invalidate(tier Tier, key string) {
	delete(c.mem, string(tier)+":"+key)
	if c.db != nil {
		if err := c.db.DeleteCacheEntry(string(tier), key); err != nil {
			log.Printf("cache: delete failed: %v", err)
		}
	}
}

// PurgeContent removes every entry for a content hash across all tiers.
func (c *Cache) PurgeContent(contentHash string) int64 {
	for full, e := range c.mem {
		if e.contentHash == contentHash {
			delete(c.mem, full)
		}
	}
	if c.db == nil {
		return 0
	}
	n, err := c.db.PurgeCacheByContent(contentHash)
	if err != nil {
		log.Printf("cache: purge failed: %v", err)
		return 0
	}
	return n
}

// Stats reports hit/miss counters and memory-tier size for this session.
type Stats struct {
	Hits       int
	Misses     int
	MemEntries int
}

// Stats returns the cache's session counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits, Misses: c.misses, MemEntries: len(c.mem)}
}

// SetClock replaces the time source. Test hook.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}
