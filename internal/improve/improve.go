// Package improve re-validates content before and after a correction pass
// and turns the two detections into deltas plus a trend model that
// predicts how many passes remain until convergence.
package improve

import (
	"fmt"
	"math"
	"sort"

	"github.com/lancedesk/seopass/internal/cache"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/detect"
)

// Trend direction labels.
const (
	TrendImproving  = "improving"
	TrendDeclining  = "declining"
	TrendStagnating = "stagnating"
	TrendStable     = "stable"
)

// Improvements is the delta between two detections.
type Improvements struct {
	ScoreImprovement   float64            `json:"score_improvement"`
	IssuesResolved     int                `json:"issues_resolved"`
	ResolvedIssueTypes []detect.IssueType `json:"resolved_issue_types,omitempty"`
	NewIssues          []detect.IssueType `json:"new_issues,omitempty"`
	PersistentIssues   []detect.IssueType `json:"persistent_issues,omitempty"`
}

// Trend summarizes score movement across recorded passes.
type Trend struct {
	Direction            string  `json:"direction"`
	Velocity             float64 `json:"velocity"` // mean score delta per pass
	PassesToConvergence  int     `json:"passes_to_convergence"`
	ConvergencePredicted bool    `json:"convergence_predicted"`
}

// Measurement is one before/after comparison.
type Measurement struct {
	Original     detect.Detection `json:"original"`
	Corrected    detect.Detection `json:"corrected"`
	Improvements Improvements     `json:"improvements"`
	Summary      string           `json:"summary"`
	Trends       *Trend           `json:"trends,omitempty"`
}

// Tracker measures improvement across passes. Validation goes through the
// cache so re-validating an already-seen content is cheap.
type Tracker struct {
	det    *detect.Detector
	cache  *cache.Cache
	deltas []float64
}

// NewTracker creates an improvement tracker.
func NewTracker(det *detect.Detector, c *cache.Cache) *Tracker {
	return &Tracker{det: det, cache: c}
}

// Validate runs cache-backed detection for a content record.
func (t *Tracker) Validate(c content.Content) detect.Detection {
	hash := c.Hash()
	key := cache.Key(hash, t.det.Thresholds().Signature(), c.FocusKeyword)

	var d detect.Detection
	if t.cache != nil && t.cache.GetJSON(cache.TierContentMetrics, key, &d) {
		return d
	}
	d = t.det.DetectAll(c)
	if t.cache != nil {
		t.cache.SetJSON(cache.TierContentMetrics, key, d, hash)
	}
	return d
}

// ValidateAndMeasure re-validates both versions independently and
// computes the pass deltas. The measurement is also recorded into the
// trend model under the given pass number.
func (t *Tracker) ValidateAndMeasure(before, after content.Content, passNumber int) Measurement {
	orig := t.Validate(before)
	corr := t.Validate(after)

	imp := Diff(orig, corr)
	t.RecordDelta(imp.ScoreImprovement)

	m := Measurement{
		Original:     orig,
		Corrected:    corr,
		Improvements: imp,
		Summary: fmt.Sprintf("pass %d: score %.1f -> %.1f (%+.1f), issues %d -> %d",
			passNumber, orig.ComplianceScore, corr.ComplianceScore,
			imp.ScoreImprovement, orig.TotalIssues, corr.TotalIssues),
	}
	if trend := t.Trend(corr.ComplianceScore); trend != nil {
		m.Trends = trend
	}
	return m
}

// Diff computes the improvement deltas between two detections.
func Diff(before, after detect.Detection) Improvements {
	beforeTypes := before.IssueTypes()
	afterTypes := after.IssueTypes()

	imp := Improvements{
		ScoreImprovement: after.ComplianceScore - before.ComplianceScore,
		IssuesResolved:   before.TotalIssues - after.TotalIssues,
	}
	for typ := range beforeTypes {
		if afterTypes[typ] {
			imp.PersistentIssues = append(imp.PersistentIssues, typ)
		} else {
			imp.ResolvedIssueTypes = append(imp.ResolvedIssueTypes, typ)
		}
	}
	for typ := range afterTypes {
		if !beforeTypes[typ] {
			imp.NewIssues = append(imp.NewIssues, typ)
		}
	}
	sortTypes(imp.ResolvedIssueTypes)
	sortTypes(imp.NewIssues)
	sortTypes(imp.PersistentIssues)
	return imp
}

// RecordDelta appends one pass's score delta to the trend history.
func (t *Tracker) RecordDelta(delta float64) {
	t.deltas = append(t.deltas, delta)
}

// Trend returns the trend model, or nil before two passes are recorded.
func (t *Tracker) Trend(currentScore float64) *Trend {
	if len(t.deltas) < 2 {
		return nil
	}

	recent := t.deltas
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	var recentAvg float64
	for _, d := range recent {
		recentAvg += d
	}
	recentAvg /= float64(len(recent))

	var velocity float64
	for _, d := range t.deltas {
		velocity += d
	}
	velocity /= float64(len(t.deltas))

	trend := &Trend{Velocity: velocity}
	switch {
	case recentAvg > 5:
		trend.Direction = TrendImproving
	case recentAvg < -2:
		trend.Direction = TrendDeclining
	case recentAvg < 1:
		trend.Direction = TrendStagnating
	default:
		trend.Direction = TrendStable
	}

	if velocity > 0 && currentScore < 100 {
		trend.PassesToConvergence = int(math.Ceil((100 - currentScore) / velocity))
		trend.ConvergencePredicted = true
	}
	return trend
}

func sortTypes(types []detect.IssueType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}
