// Package optimizer drives the multi-pass loop: validate, correct,
// measure, repeat until compliance or one of the termination conditions.
// The best-scoring version seen so far is tracked separately from the
// working copy, so a declining pass can never worsen the final output.
package optimizer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lancedesk/seopass/internal/cache"
	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/detect"
	"github.com/lancedesk/seopass/internal/improve"
	"github.com/lancedesk/seopass/internal/pipeline"
	"github.com/lancedesk/seopass/internal/preserve"
	"github.com/lancedesk/seopass/internal/progress"
)

// Reason explains why the loop stopped. Conditions are checked in this
// order, so an earlier reason always wins when several hold at once.
type Reason string

const (
	ReasonInitialCompliance       Reason = "initial_compliance"
	ReasonComplianceAchieved      Reason = "compliance_achieved"
	ReasonMaxIterationsReached    Reason = "max_iterations_reached"
	ReasonStagnationDetected      Reason = "stagnation_detected"
	ReasonInsufficientImprovement Reason = "insufficient_improvement"
	ReasonCancelled               Reason = "cancelled"
	ReasonInternalError           Reason = "internal_error"
)

// Result is the outcome of an optimization run.
type Result struct {
	Content            content.Content           `json:"content"`
	Validation         pipeline.ValidationResult `json:"validation"`
	BaselineScore      float64                   `json:"baseline_score"`
	FinalScore         float64                   `json:"final_score"`
	Passes             int                       `json:"passes"`
	TerminationReason  Reason                    `json:"termination_reason"`
	ComplianceAchieved bool                      `json:"compliance_achieved"`
	Trend              *improve.Trend            `json:"trend,omitempty"`
	Report             progress.Report           `json:"report"`
	Recovered          bool                      `json:"recovered,omitempty"`
}

// Optimizer runs content through repeated correction passes.
type Optimizer struct {
	cfg       config.Optimizer
	pipe      *pipeline.Pipeline
	improve   *improve.Tracker
	progress  *progress.Tracker
	preserver *preserve.Preserver
	cache     *cache.Cache
}

// New wires the optimizer. The progress tracker belongs to one run; a
// fresh one is created per Optimize call through the factory.
func New(cfg config.Optimizer, pipe *pipeline.Pipeline, imp *improve.Tracker,
	prog *progress.Tracker, pres *preserve.Preserver, c *cache.Cache) *Optimizer {
	return &Optimizer{
		cfg:       cfg,
		pipe:      pipe,
		improve:   imp,
		progress:  prog,
		preserver: pres,
		cache:     c,
	}
}

// Progress exposes the run's progress tracker, mainly for rollback.
func (o *Optimizer) Progress() *progress.Tracker {
	return o.progress
}

// Optimize runs the multi-pass loop on a content record. It never returns
// content scoring below the input: if every pass declines or the run
// panics, the baseline (or best intermediate) version comes back.
func (o *Optimizer) Optimize(ctx context.Context, c content.Content) (result Result) {
	best := c.Clone()
	bestScore := 0.0
	started := false

	defer func() {
		if r := recover(); r == nil {
			return
		} else {
			log.Printf("optimizer: recovered from panic: %v", r)
			result = Result{
				Content:           best,
				FinalScore:        bestScore,
				TerminationReason: ReasonInternalError,
				Recovered:         true,
				Validation: pipeline.ValidationResult{
					OverallScore: bestScore,
					Errors:       []string{fmt.Sprintf("optimization aborted: %v", r)},
				},
			}
			if started {
				result.Passes = o.progress.PassCount()
				o.progress.EndSession(false, string(ReasonInternalError), bestScore)
				result.Report = o.progress.GenerateReport()
			}
		}
	}()

	baseline := o.pipe.Validate(c)
	bestScore = baseline.ComplianceScore
	o.progress.StartSession(c, baseline.ComplianceScore)
	started = true

	target := o.cfg.TargetComplianceScore
	if target <= 0 {
		target = 95
	}

	if baseline.ComplianceScore >= target {
		return o.finish(c, baseline, baseline.ComplianceScore, ReasonInitialCompliance)
	}

	maxIterations := o.cfg.MaxIterations
	if maxIterations < 1 {
		maxIterations = 1
	}

	current := c
	currentScore := baseline.ComplianceScore
	stagnation := 0
	var reason Reason

	for pass := 1; pass <= maxIterations; pass++ {
		if err := ctx.Err(); err != nil {
			reason = ReasonCancelled
			break
		}

		beforeScore := currentScore
		beforeDetection := o.pipe.Validate(current)

		run := o.pipe.Run(ctx, current)
		candidate := current
		if run.CorrectedContent != nil {
			candidate = *run.CorrectedContent
		}

		// A correction that mangles the document structure is rolled back
		// and the pass is scored against the unchanged content.
		if check := o.preserver.Check(current, candidate); !check.OK {
			log.Printf("optimizer: pass %d rolled back: %v", pass, check.Violations)
			candidate = current
			run = pipeline.ValidationResult{
				OverallScore: beforeScore,
				Metrics:      beforeDetection.Metrics,
				IsValid:      beforeDetection.IsCompliant,
				Warnings:     check.Violations,
			}
		}

		measurement := o.improve.ValidateAndMeasure(current, candidate, pass)
		afterScore := measurement.Corrected.ComplianceScore

		o.progress.RecordPass(pass, candidate, beforeScore, afterScore,
			beforeDetection.Issues, measurement.Corrected.Issues,
			run.CorrectionsMade, strategyLabel(run))

		if afterScore > bestScore {
			best = candidate.Clone()
			bestScore = afterScore
		}

		delta := afterScore - beforeScore
		wasStagnating := stagnation > 0
		if delta < o.cfg.MinImprovementThreshold {
			stagnation++
		} else {
			stagnation = 0
		}

		current = candidate
		currentScore = afterScore

		if afterScore >= target {
			reason = ReasonComplianceAchieved
			break
		}
		if pass == maxIterations {
			reason = ReasonMaxIterationsReached
			break
		}
		if o.cfg.EnableEarlyTermination {
			if stagnation >= o.cfg.StagnationThreshold && o.cfg.StagnationThreshold > 0 {
				reason = ReasonStagnationDetected
				break
			}
			if wasStagnating && delta < o.cfg.MinImprovementThreshold {
				// A second consecutive pass below the improvement
				// threshold; more passes cannot help.
				reason = ReasonInsufficientImprovement
				break
			}
		}
	}

	// The working copy may have declined after the best pass. Re-validate
	// the best version so the reported result describes what is returned.
	finalDetection := o.pipe.Validate(best)
	return o.finish(best, finalDetection, finalDetection.ComplianceScore, reason)
}

func (o *Optimizer) finish(c content.Content, d detect.Detection, score float64, reason Reason) Result {
	target := o.cfg.TargetComplianceScore
	if target <= 0 {
		target = 95
	}
	compliance := score >= target

	o.progress.EndSession(compliance, string(reason), score)
	report := o.progress.GenerateReport()

	result := Result{
		Content:            c,
		BaselineScore:      report.BaselineScore,
		FinalScore:         score,
		Passes:             o.progress.PassCount(),
		TerminationReason:  reason,
		ComplianceAchieved: compliance,
		Trend:              o.improve.Trend(score),
		Report:             report,
		Validation: pipeline.ValidationResult{
			IsValid:      d.IsCompliant,
			OverallScore: score,
			Metrics:      d.Metrics,
			Warnings:     detect.Summarize(d.Issues),
		},
	}
	if warn := o.titleConflict(c); warn != "" {
		result.Validation.Warnings = append(result.Validation.Warnings, warn)
	}
	return result
}

// titleConflict checks the title-uniqueness tier for other content
// already optimized under the same title and focus keyword, and claims
// the title for this content when it is free. The key deliberately
// excludes the body: edits to the prose must not reset the claim.
func (o *Optimizer) titleConflict(c content.Content) string {
	if o.cache == nil || strings.TrimSpace(c.Title) == "" {
		return ""
	}
	key := cache.Key(strings.ToLower(strings.TrimSpace(c.Title)), strings.ToLower(c.FocusKeyword))

	var owner string
	if o.cache.GetJSON(cache.TierTitleUniqueness, key, &owner) {
		if owner != c.Hash() {
			return fmt.Sprintf("title %q already belongs to other optimized content", c.Title)
		}
		return ""
	}
	o.cache.SetJSON(cache.TierTitleUniqueness, key, c.Hash(), c.Hash())
	return ""
}

func strategyLabel(run pipeline.ValidationResult) string {
	if len(run.CorrectionsMade) == 0 {
		return ""
	}
	return run.CorrectionsMade[0]
}
