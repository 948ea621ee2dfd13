package database

import (
	"database/sql"
	"time"
)

// CacheRow is one persisted cache entry.
type CacheRow struct {
	Tier        string
	Key         string
	ContentHash string
	Value       string
	InsertedAt  time.Time
	TTL         time.Duration
}

// Expired reports whether the entry is past its TTL at the given time.
func (r CacheRow) Expired(now time.Time) bool {
	return now.Sub(r.InsertedAt) >= r.TTL
}

// GetCacheEntry returns a cache entry, or nil if absent. Expiry is the
// caller's concern: the in-memory tier needs the insertion time to decide
// whether a promoted entry is still fresh.
func (db *DB) GetCacheEntry(tier, key string) (*CacheRow, error) {
	row := db.conn.QueryRow(
		`SELECT tier, key, content_hash, value, inserted_at, ttl_seconds
		 FROM cache_entries WHERE tier = ? AND key = ?`, tier, key)

	var r CacheRow
	var insertedAt, ttlSeconds int64
	err := row.Scan(&r.Tier, &r.Key, &r.ContentHash, &r.Value, &insertedAt, &ttlSeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.InsertedAt = time.Unix(insertedAt, 0)
	r.TTL = time.Duration(ttlSeconds) * time.Second
	return &r, nil
}

// SetCacheEntry inserts or replaces a cache entry.
func (db *DB) SetCacheEntry(r CacheRow) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO cache_entries (tier, key, content_hash, value, inserted_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Tier, r.Key, r.ContentHash, r.Value, r.InsertedAt.Unix(), int64(r.TTL.Seconds()))
	return err
}

// DeleteCacheEntry removes a single entry.
func (db *DB) DeleteCacheEntry(tier, key string) error {
	_, err := db.conn.Exec("DELETE FROM cache_entries WHERE tier = ? AND key = ?", tier, key)
	return err
}

// PurgeCacheByContent removes all entries across all tiers for a content
// hash. Returns the number of rows removed.
func (db *DB) PurgeCacheByContent(contentHash string) (int64, error) {
	res, err := db.conn.Exec("DELETE FROM cache_entries WHERE content_hash = ?", contentHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpiredCache removes entries past their TTL at the given time.
func (db *DB) PurgeExpiredCache(now time.Time) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM cache_entries WHERE inserted_at + ttl_seconds <= ?", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CacheTierCounts returns the number of entries per tier.
func (db *DB) CacheTierCounts() (map[string]int, error) {
	rows, err := db.conn.Query("SELECT tier, COUNT(*) FROM cache_entries GROUP BY tier")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		counts[tier] = n
	}
	return counts, rows.Err()
}
