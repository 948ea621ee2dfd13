package progress

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report is the full session summary produced at the end of a run.
type Report struct {
	SessionID          int64             `json:"session_id,omitempty"`
	StartedAt          time.Time         `json:"started_at"`
	EndedAt            time.Time         `json:"ended_at,omitempty"`
	Duration           string            `json:"duration,omitempty"`
	TotalPasses        int               `json:"total_passes"`
	BaselineScore      float64           `json:"baseline_score"`
	FinalScore         float64           `json:"final_score"`
	TotalImprovement   float64           `json:"total_improvement"`
	Efficiency         float64           `json:"efficiency"` // improvement per pass
	ComplianceAchieved bool              `json:"compliance_achieved"`
	TerminationReason  string            `json:"termination_reason,omitempty"`
	Passes             []PassRecord      `json:"passes"`
	Strategies         []StrategyMetrics `json:"strategies,omitempty"`
	BeforeTitle        string            `json:"before_title,omitempty"`
	AfterTitle         string            `json:"after_title,omitempty"`
	BeforeMetaDesc     string            `json:"before_meta_description,omitempty"`
	AfterMetaDesc      string            `json:"after_meta_description,omitempty"`
}

// GenerateReport builds the report from the recorded passes. It can be
// called before EndSession for an in-flight view.
func (t *Tracker) GenerateReport() Report {
	r := Report{
		SessionID:          t.sessionID,
		StartedAt:          t.startedAt,
		TotalPasses:        len(t.records),
		BaselineScore:      t.baselineScore,
		FinalScore:         t.baselineScore,
		ComplianceAchieved: t.complianceAchieved,
		TerminationReason:  t.terminationReason,
		Passes:             t.records,
		BeforeTitle:        t.initialContent.Title,
		BeforeMetaDesc:     t.initialContent.MetaDescription,
	}
	if t.ended {
		r.EndedAt = t.endedAt
		r.Duration = t.endedAt.Sub(t.startedAt).Round(time.Millisecond).String()
	}
	if n := len(t.records); n > 0 {
		r.FinalScore = t.records[n-1].AfterScore
		r.TotalImprovement = r.FinalScore - t.baselineScore
		r.Efficiency = r.TotalImprovement / float64(n)
	}
	if snap := t.ring.get(t.lastPassNumber()); snap != nil && snap.PassNumber > 0 {
		r.AfterTitle = snap.Content.Title
		r.AfterMetaDesc = snap.Content.MetaDescription
	}

	for _, m := range t.strategies {
		r.Strategies = append(r.Strategies, *m)
	}
	sort.Slice(r.Strategies, func(i, j int) bool {
		if r.Strategies[i].TimesUsed != r.Strategies[j].TimesUsed {
			return r.Strategies[i].TimesUsed > r.Strategies[j].TimesUsed
		}
		return r.Strategies[i].Name < r.Strategies[j].Name
	})
	return r
}

func (t *Tracker) lastPassNumber() int {
	if len(t.records) == 0 {
		return 0
	}
	return t.records[len(t.records)-1].PassNumber
}

// Format renders the report for terminal output.
func (r Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %d: %d passes, score %.1f -> %.1f (%+.1f)\n",
		r.SessionID, r.TotalPasses, r.BaselineScore, r.FinalScore, r.TotalImprovement)
	if r.TerminationReason != "" {
		fmt.Fprintf(&b, "Terminated: %s (compliant: %v)\n", r.TerminationReason, r.ComplianceAchieved)
	}
	if r.TotalPasses > 0 {
		fmt.Fprintf(&b, "Efficiency: %+.2f points per pass\n", r.Efficiency)
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", r.Duration)
	}
	for _, p := range r.Passes {
		fmt.Fprintf(&b, "  pass %d: %.1f -> %.1f", p.PassNumber, p.BeforeScore, p.AfterScore)
		if len(p.Corrections) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(p.Corrections, ", "))
		}
		b.WriteString("\n")
	}
	for _, s := range r.Strategies {
		fmt.Fprintf(&b, "  strategy %s: used %d, avg %+.1f, success %.0f%%\n",
			s.Name, s.TimesUsed, s.AverageScoreImprovement, s.SuccessRate*100)
	}
	return b.String()
}
