package progress

import (
	"time"

	"github.com/lancedesk/seopass/internal/content"
)

// Snapshot is a stored copy of the content at one pass, kept for rollback.
type Snapshot struct {
	PassNumber  int             `json:"pass_number"`
	Label       string          `json:"label"`
	Timestamp   time.Time       `json:"timestamp"`
	Score       float64         `json:"score"`
	Content     content.Content `json:"content"`
	ContentHash string          `json:"content_hash"`
}

// snapshotRing is a bounded FIFO of snapshots. The pass-0 baseline lives
// outside the ring so eviction can never roll past it.
type snapshotRing struct {
	baseline *Snapshot
	entries  []Snapshot
	capacity int
}

func newSnapshotRing(capacity int) *snapshotRing {
	if capacity <= 0 {
		capacity = 20
	}
	return &snapshotRing{capacity: capacity}
}

// push stores a snapshot, evicting the oldest non-baseline entry when the
// ring is full.
func (r *snapshotRing) push(s Snapshot) {
	if s.PassNumber == 0 {
		r.baseline = &s
		return
	}
	if len(r.entries) >= r.capacity {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}
	r.entries = append(r.entries, s)
}

// get returns the snapshot for a pass number, or nil if it was evicted.
func (r *snapshotRing) get(passNumber int) *Snapshot {
	if passNumber == 0 {
		return r.baseline
	}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].PassNumber == passNumber {
			return &r.entries[i]
		}
	}
	return nil
}

func (r *snapshotRing) len() int {
	n := len(r.entries)
	if r.baseline != nil {
		n++
	}
	return n
}
