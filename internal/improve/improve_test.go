package improve

import (
	"testing"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/detect"
)

func testTracker() *Tracker {
	return NewTracker(detect.New(config.Default().Thresholds), nil)
}

func sampleContent(meta string) content.Content {
	return content.Content{
		Title:           "Gardening Basics For Beginners This Year",
		Body:            "Gardening starts with the soil. However, patience matters more than tools.",
		MetaDescription: meta,
		FocusKeyword:    "gardening",
	}
}

func detection(score float64, types ...detect.IssueType) detect.Detection {
	d := detect.Detection{ComplianceScore: score, TotalIssues: len(types)}
	for _, typ := range types {
		d.Issues = append(d.Issues, detect.Issue{Type: typ})
	}
	return d
}

func TestDiffResolvedAndNew(t *testing.T) {
	before := detection(60, detect.IssueMetaDescTooShort, detect.IssueKeywordDensityLow)
	after := detection(80, detect.IssueKeywordDensityLow, detect.IssueTitleTooLong)

	imp := Diff(before, after)
	if imp.ScoreImprovement != 20 {
		t.Errorf("expected +20, got %.1f", imp.ScoreImprovement)
	}
	if len(imp.ResolvedIssueTypes) != 1 || imp.ResolvedIssueTypes[0] != detect.IssueMetaDescTooShort {
		t.Errorf("unexpected resolved types: %v", imp.ResolvedIssueTypes)
	}
	if len(imp.NewIssues) != 1 || imp.NewIssues[0] != detect.IssueTitleTooLong {
		t.Errorf("unexpected new issues: %v", imp.NewIssues)
	}
	if len(imp.PersistentIssues) != 1 || imp.PersistentIssues[0] != detect.IssueKeywordDensityLow {
		t.Errorf("unexpected persistent issues: %v", imp.PersistentIssues)
	}
}

func TestTrendRequiresTwoPasses(t *testing.T) {
	tr := testTracker()
	if tr.Trend(50) != nil {
		t.Error("expected nil trend with no deltas")
	}
	tr.RecordDelta(10)
	if tr.Trend(60) != nil {
		t.Error("expected nil trend with one delta")
	}
	tr.RecordDelta(10)
	if tr.Trend(70) == nil {
		t.Error("expected trend after two deltas")
	}
}

func TestTrendDirections(t *testing.T) {
	cases := []struct {
		name   string
		deltas []float64
		want   string
	}{
		{"improving", []float64{8, 9, 10}, TrendImproving},
		{"declining", []float64{-3, -4, -5}, TrendDeclining},
		{"stagnating", []float64{0.2, 0.3, 0.1}, TrendStagnating},
		{"stable", []float64{2, 3, 4}, TrendStable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr := testTracker()
			for _, d := range c.deltas {
				tr.RecordDelta(d)
			}
			trend := tr.Trend(70)
			if trend == nil {
				t.Fatal("expected trend")
			}
			if trend.Direction != c.want {
				t.Errorf("expected %s, got %s", c.want, trend.Direction)
			}
		})
	}
}

func TestTrendUsesLastThreeForDirection(t *testing.T) {
	tr := testTracker()
	// Early big gains followed by three flat passes: direction reflects
	// the recent flat run, not the early spike.
	for _, d := range []float64{20, 15, 0.1, 0.2, 0.1} {
		tr.RecordDelta(d)
	}
	trend := tr.Trend(80)
	if trend.Direction != TrendStagnating {
		t.Errorf("expected stagnating, got %s", trend.Direction)
	}
}

func TestTrendVelocityAndConvergence(t *testing.T) {
	tr := testTracker()
	tr.RecordDelta(10)
	tr.RecordDelta(6)

	trend := tr.Trend(80)
	if trend.Velocity != 8 {
		t.Errorf("expected velocity 8, got %.2f", trend.Velocity)
	}
	// (100-80)/8 = 2.5, rounded up.
	if !trend.ConvergencePredicted || trend.PassesToConvergence != 3 {
		t.Errorf("expected 3 passes to convergence, got %+v", trend)
	}
}

func TestNoConvergenceWhenDeclining(t *testing.T) {
	tr := testTracker()
	tr.RecordDelta(-5)
	tr.RecordDelta(-3)

	trend := tr.Trend(60)
	if trend.ConvergencePredicted {
		t.Error("expected no convergence prediction with negative velocity")
	}
}

func TestValidateAndMeasureRecordsDelta(t *testing.T) {
	tr := testTracker()

	before := sampleContent("")
	after := sampleContent("Learn gardening from the ground up: soil preparation, watering schedules, and plant selection, with simple steps for your first season.")

	m := tr.ValidateAndMeasure(before, after, 1)
	if m.Original.ComplianceScore > m.Corrected.ComplianceScore {
		t.Errorf("expected corrected score >= original, got %.1f -> %.1f",
			m.Original.ComplianceScore, m.Corrected.ComplianceScore)
	}
	if m.Summary == "" {
		t.Error("expected non-empty summary")
	}
	if m.Trends != nil {
		t.Error("expected no trend on first pass")
	}
}
