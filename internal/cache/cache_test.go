package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/database"
)

func testConfig() config.Cache {
	return config.Default().Cache
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetAfterSet(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	c.Set(TierValidationResult, "k1", "v1", "hash1")

	got, ok := c.Get(TierValidationResult, "k1")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != "v1" {
		t.Errorf("expected v1, got %q", got)
	}
}

func TestMissOnUnknownKey(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	if _, ok := c.Get(TierValidationResult, "nope"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestTiersAreIsolated(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	c.Set(TierValidationResult, "k", "validation", "h")
	c.Set(TierContentMetrics, "k", "metrics", "h")

	if got, _ := c.Get(TierValidationResult, "k"); got != "validation" {
		t.Errorf("expected validation, got %q", got)
	}
	if got, _ := c.Get(TierContentMetrics, "k"); got != "metrics" {
		t.Errorf("expected metrics, got %q", got)
	}
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set(TierValidationResult, "k", "v", "h")

	// Just before the 30 minute TTL: still served.
	now = now.Add(29 * time.Minute)
	if _, ok := c.Get(TierValidationResult, "k"); !ok {
		t.Fatal("expected hit before TTL")
	}

	// Past the TTL: gone from both tiers.
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(TierValidationResult, "k"); ok {
		t.Error("expected miss after TTL")
	}
}

func TestPersistentHitIsPromoted(t *testing.T) {
	db := openTestDB(t)
	writer := New(db, testConfig())
	writer.Set(TierContentMetrics, "k", "v", "h")

	// A fresh cache has an empty memory tier and must fall through to the
	// persistent store.
	reader := New(db, testConfig())
	got, ok := reader.Get(TierContentMetrics, "k")
	if !ok || got != "v" {
		t.Fatalf("expected persistent hit, got %q ok=%v", got, ok)
	}
	if reader.Stats().MemEntries != 1 {
		t.Error("expected entry promoted into memory tier")
	}
}

func TestMemoryTierWorksWithoutDB(t *testing.T) {
	c := New(nil, testConfig())
	c.Set(TierKeywordAnalysis, "k", "v", "h")
	if got, ok := c.Get(TierKeywordAnalysis, "k"); !ok || got != "v" {
		t.Errorf("expected memory hit without db, got %q ok=%v", got, ok)
	}
}

func TestDisabledCacheNeverHits(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := New(openTestDB(t), cfg)
	c.Set(TierValidationResult, "k", "v", "h")
	if _, ok := c.Get(TierValidationResult, "k"); ok {
		t.Error("expected disabled cache to miss")
	}
}

func TestPurgeContentRemovesAllTiers(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	c.Set(TierValidationResult, "k1", "v", "hash-a")
	c.Set(TierContentMetrics, "k2", "v", "hash-a")
	c.Set(TierContentMetrics, "k3", "v", "hash-b")

	c.PurgeContent("hash-a")

	if _, ok := c.Get(TierValidationResult, "k1"); ok {
		t.Error("expected k1 purged")
	}
	if _, ok := c.Get(TierContentMetrics, "k2"); ok {
		t.Error("expected k2 purged")
	}
	if _, ok := c.Get(TierContentMetrics, "k3"); !ok {
		t.Error("expected other content hash untouched")
	}
}

func TestGetJSONDropsCorruptEntry(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	c.Set(TierValidationResult, "k", "{not json", "h")

	var out map[string]int
	if c.GetJSON(TierValidationResult, "k", &out) {
		t.Fatal("expected decode failure to count as miss")
	}
	if _, ok := c.Get(TierValidationResult, "k"); ok {
		t.Error("expected corrupt entry evicted")
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	c.SetJSON(TierContentMetrics, "k", map[string]int{"score": 92}, "h")

	var out map[string]int
	if !c.GetJSON(TierContentMetrics, "k", &out) {
		t.Fatal("expected hit")
	}
	if out["score"] != 92 {
		t.Errorf("expected 92, got %d", out["score"])
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("a", "b") != Key("a", "b") {
		t.Error("expected identical keys for identical parts")
	}
	if Key("a", "b") == Key("ab") {
		t.Error("expected part boundaries to matter")
	}
}

func TestStatsCounters(t *testing.T) {
	c := New(openTestDB(t), testConfig())
	c.Set(TierValidationResult, "k", "v", "h")
	c.Get(TierValidationResult, "k")
	c.Get(TierValidationResult, "missing")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %+v", s)
	}
}
