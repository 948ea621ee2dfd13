// Package progress keeps the audit trail of an optimization session: one
// immutable PassRecord per iteration, a bounded snapshot history for
// rollback, and running strategy-effectiveness aggregates.
package progress

import (
	"encoding/json"
	"log"
	"time"

	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/database"
	"github.com/lancedesk/seopass/internal/detect"
)

// PassRecord is the immutable record of one optimization pass. The list
// index always equals the pass number minus one.
type PassRecord struct {
	PassNumber     int            `json:"pass_number"`
	BeforeScore    float64        `json:"before_score"`
	AfterScore     float64        `json:"after_score"`
	IssuesBefore   []detect.Issue `json:"issues_before"`
	IssuesAfter    []detect.Issue `json:"issues_after"`
	Corrections    []string       `json:"corrections"`
	StrategyUsed   string         `json:"strategy_used,omitempty"`
	Improvement    float64        `json:"improvement"`
	IssuesResolved int            `json:"issues_resolved"`
}

// StrategyMetrics aggregates a strategy's effect over a session. Updated
// incrementally, never recomputed from history.
type StrategyMetrics struct {
	Name                      string  `json:"name"`
	TimesUsed                 int     `json:"times_used"`
	CumulativeScoreGain       float64 `json:"cumulative_score_gain"`
	CumulativeIssuesResolved  int     `json:"cumulative_issues_resolved"`
	AverageScoreImprovement   float64 `json:"average_score_improvement"`
	AverageIssuesResolved     float64 `json:"average_issues_resolved"`
	SuccessRate               float64 `json:"success_rate"`
	successes                 int
}

// Tracker owns the session audit state. It must not be shared between
// sessions; the snapshot ring and pass log belong to exactly one run.
type Tracker struct {
	db        *database.DB
	sessionID int64

	initialContent content.Content
	baselineScore  float64
	startedAt      time.Time
	endedAt        time.Time

	records    []PassRecord
	ring       *snapshotRing
	strategies map[string]*StrategyMetrics

	complianceAchieved bool
	terminationReason  string
	ended              bool
}

// NewTracker creates a progress tracker with the given snapshot capacity.
// A nil db keeps the session in memory only.
func NewTracker(db *database.DB, maxHistoryEntries int) *Tracker {
	return &Tracker{
		db:         db,
		ring:       newSnapshotRing(maxHistoryEntries),
		strategies: make(map[string]*StrategyMetrics),
	}
}

// StartSession records the immutable baseline. The initial snapshot is
// the rollback floor and is never evicted.
func (t *Tracker) StartSession(initial content.Content, baselineScore float64) {
	t.initialContent = initial.Clone()
	t.baselineScore = baselineScore
	t.startedAt = time.Now()

	t.ring.push(Snapshot{
		PassNumber:  0,
		Label:       "initial",
		Timestamp:   t.startedAt,
		Score:       baselineScore,
		Content:     initial.Clone(),
		ContentHash: initial.Hash(),
	})

	if t.db != nil {
		id, err := t.db.InsertSession(initial.Hash(), initial.FocusKeyword, baselineScore)
		if err != nil {
			log.Printf("progress: session insert failed: %v", err)
			return
		}
		t.sessionID = id
	}
}

// SessionID returns the persisted session row ID (0 when not persisted).
func (t *Tracker) SessionID() int64 {
	return t.sessionID
}

// RecordPass appends the pass record and snapshot for one iteration.
// Records are append-only; pass numbers must arrive in order starting
// at 1.
func (t *Tracker) RecordPass(passNumber int, after content.Content, beforeScore, afterScore float64,
	issuesBefore, issuesAfter []detect.Issue, corrections []string, strategy string) {

	rec := PassRecord{
		PassNumber:     passNumber,
		BeforeScore:    beforeScore,
		AfterScore:     afterScore,
		IssuesBefore:   append([]detect.Issue(nil), issuesBefore...),
		IssuesAfter:    append([]detect.Issue(nil), issuesAfter...),
		Corrections:    append([]string(nil), corrections...),
		StrategyUsed:   strategy,
		Improvement:    afterScore - beforeScore,
		IssuesResolved: len(issuesBefore) - len(issuesAfter),
	}
	t.records = append(t.records, rec)

	t.ring.push(Snapshot{
		PassNumber:  passNumber,
		Label:       "pass",
		Timestamp:   time.Now(),
		Score:       afterScore,
		Content:     after.Clone(),
		ContentHash: after.Hash(),
	})

	t.updateStrategy(strategy, rec)
}

func (t *Tracker) updateStrategy(name string, rec PassRecord) {
	if name == "" {
		name = "default"
	}
	m, ok := t.strategies[name]
	if !ok {
		m = &StrategyMetrics{Name: name}
		t.strategies[name] = m
	}
	m.TimesUsed++
	m.CumulativeScoreGain += rec.Improvement
	m.CumulativeIssuesResolved += rec.IssuesResolved
	if rec.Improvement > 0 {
		m.successes++
	}
	m.AverageScoreImprovement = m.CumulativeScoreGain / float64(m.TimesUsed)
	m.AverageIssuesResolved = float64(m.CumulativeIssuesResolved) / float64(m.TimesUsed)
	m.SuccessRate = float64(m.successes) / float64(m.TimesUsed)
}

// EndSession closes the session and persists the final report.
func (t *Tracker) EndSession(complianceAchieved bool, reason string, finalScore float64) {
	if t.ended {
		return
	}
	t.ended = true
	t.endedAt = time.Now()
	t.complianceAchieved = complianceAchieved
	t.terminationReason = reason

	if t.db == nil || t.sessionID == 0 {
		return
	}
	if err := t.db.FinishSession(t.sessionID, finalScore, len(t.records), complianceAchieved, reason); err != nil {
		log.Printf("progress: session finish failed: %v", err)
	}
	report := t.GenerateReport()
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("progress: report encode failed: %v", err)
		return
	}
	if err := t.db.SaveReport(t.sessionID, string(data)); err != nil {
		log.Printf("progress: report save failed: %v", err)
	}
}

// RollbackToPass returns a copy of the content as it was after the given
// pass (pass 0 is the session input), or nil if that snapshot is gone.
func (t *Tracker) RollbackToPass(passNumber int) *content.Content {
	snap := t.ring.get(passNumber)
	if snap == nil {
		return nil
	}
	c := snap.Content.Clone()
	return &c
}

// Records returns the pass history. Callers must not modify it.
func (t *Tracker) Records() []PassRecord {
	return t.records
}

// PassCount returns the number of recorded passes.
func (t *Tracker) PassCount() int {
	return len(t.records)
}
