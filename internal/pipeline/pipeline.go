// Package pipeline runs one validate-correct-revalidate cycle over a
// content record. Each aspect is a step: detect its issues, run the
// matching corrector under the retry manager, and confirm the correction
// on the new version. A failing step degrades the result instead of
// aborting the cycle.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/lancedesk/seopass/internal/cache"
	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/correct"
	"github.com/lancedesk/seopass/internal/detect"
	"github.com/lancedesk/seopass/internal/mdutil"
	"github.com/lancedesk/seopass/internal/retry"
)

// ValidationResult is the outcome of one full pipeline run.
type ValidationResult struct {
	IsValid          bool             `json:"is_valid"`
	Errors           []string         `json:"errors,omitempty"`
	Warnings         []string         `json:"warnings,omitempty"`
	Suggestions      []string         `json:"suggestions,omitempty"`
	OverallScore     float64          `json:"overall_score"`
	CorrectedContent *content.Content `json:"corrected_content,omitempty"`
	CorrectionsMade  []string         `json:"corrections_made,omitempty"`
	Metrics          detect.Metrics   `json:"metrics"`
	Degradation      string           `json:"degradation,omitempty"`
}

// aspectIssues maps each correctable aspect to the issue types it owns.
var aspectIssues = map[string][]detect.IssueType{
	"title": {
		detect.IssueTitleKeywordMissing, detect.IssueTitleTooShort, detect.IssueTitleTooLong,
	},
	"meta_description": {
		detect.IssueMetaDescMissing, detect.IssueMetaDescTooShort,
		detect.IssueMetaDescTooLong, detect.IssueMetaDescKeywordMissing,
	},
	"keyword_density": {
		detect.IssueKeywordDensityLow, detect.IssueKeywordDensityHigh,
	},
	"readability": {
		detect.IssuePassiveVoiceExcessive, detect.IssueLongSentencesExcessive,
		detect.IssueTransitionWordsLacking,
	},
	"subheadings": {
		detect.IssueSubheadingKeywordAbuse,
	},
	"images": {
		detect.IssueImagesMissing, detect.IssueImageAltMissing, detect.IssueImageAltKeywordMissing,
	},
}

// Pipeline wires the detector, correctors, retry manager, and cache into
// one validation cycle.
type Pipeline struct {
	det        *detect.Detector
	correctors map[string]correct.Corrector
	retry      *retry.Manager
	cache      *cache.Cache

	priorityOrder  []string
	autoCorrection bool
}

// New creates a pipeline. The priority order decides which aspect is
// corrected first within a pass.
func New(det *detect.Detector, correctors map[string]correct.Corrector,
	rm *retry.Manager, c *cache.Cache, opt config.Optimizer) *Pipeline {

	order := opt.PriorityOrder
	if len(order) == 0 {
		order = []string{"title", "meta_description", "keyword_density", "readability", "subheadings", "images"}
	}
	return &Pipeline{
		det:            det,
		correctors:     correctors,
		retry:          rm,
		cache:          c,
		priorityOrder:  order,
		autoCorrection: opt.AutoCorrection,
	}
}

// Validate runs detection only, serving from the cache when the content
// was seen before under the same thresholds. The keyword and readability
// analyses sit in their own tiers keyed on the prose alone, so a title
// or meta edit still reuses them.
func (p *Pipeline) Validate(c content.Content) detect.Detection {
	hash := c.Hash()
	sig := p.det.Thresholds().Signature()
	key := cache.Key(hash, sig, c.FocusKeyword)

	var d detect.Detection
	if p.cache != nil && p.cache.GetJSON(cache.TierContentMetrics, key, &d) {
		return d
	}

	plain := mdutil.PlainText(c.Body)
	d = p.det.DetectWithStats(c,
		p.keywordStats(plain, c.FocusKeyword, hash, sig),
		p.readabilityStats(plain, hash, sig))
	if p.cache != nil {
		p.cache.SetJSON(cache.TierContentMetrics, key, d, hash)
	}
	return d
}

func (p *Pipeline) keywordStats(plain, keyword, contentHash, sig string) detect.KeywordStats {
	if p.cache == nil {
		return p.det.AnalyzeKeyword(plain, keyword)
	}
	key := cache.Key(plain, sig, keyword)
	var ks detect.KeywordStats
	if p.cache.GetJSON(cache.TierKeywordAnalysis, key, &ks) {
		return ks
	}
	ks = p.det.AnalyzeKeyword(plain, keyword)
	p.cache.SetJSON(cache.TierKeywordAnalysis, key, ks, contentHash)
	return ks
}

func (p *Pipeline) readabilityStats(plain, contentHash, sig string) detect.ReadabilityStats {
	if p.cache == nil {
		return p.det.AnalyzeReadability(plain)
	}
	key := cache.Key(plain, sig)
	var rs detect.ReadabilityStats
	if p.cache.GetJSON(cache.TierReadabilityAnalysis, key, &rs) {
		return rs
	}
	rs = p.det.AnalyzeReadability(plain)
	p.cache.SetJSON(cache.TierReadabilityAnalysis, key, rs, contentHash)
	return rs
}

// Run executes the full cycle: validate, correct each failing aspect in
// priority order, then validate the result once more across all aspects.
// A record already processed under the same thresholds is served from
// the validation-result tier.
func (p *Pipeline) Run(ctx context.Context, c content.Content) ValidationResult {
	if p.cache != nil {
		var cached ValidationResult
		if p.cache.GetJSON(cache.TierValidationResult, p.resultKey(c), &cached) {
			return cached
		}
	}

	initial := p.Validate(c)

	result := ValidationResult{
		Metrics:      initial.Metrics,
		OverallScore: initial.ComplianceScore,
		IsValid:      initial.IsCompliant,
	}
	collectFindings(&result, initial)

	if initial.IsCompliant || !p.autoCorrection {
		p.cacheResult(c, result)
		return result
	}

	current := c
	detection := initial
	succeeded, failed := 0, 0

	for _, aspect := range p.priorityOrder {
		issues := detection.IssuesOf(aspectIssues[aspect]...)
		if len(issues) == 0 {
			continue
		}
		corrector, ok := p.correctors[aspect]
		if !ok {
			continue
		}

		corrected, err := p.correctAspect(ctx, corrector, current, issues)
		if err != nil {
			failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", aspect, err))
			log.Printf("pipeline: %s correction failed: %v", aspect, err)
			continue
		}
		if corrected.Equal(current) {
			// The corrector decided nothing needed changing. Do not claim
			// a correction that did not happen.
			continue
		}
		succeeded++
		current = corrected
		result.CorrectionsMade = append(result.CorrectionsMade, aspect)
		detection = p.Validate(current)
	}

	// Cross-aspect validation of the final version. A correction may have
	// shifted the metrics of another aspect.
	final := p.Validate(current)
	result.OverallScore = final.ComplianceScore
	result.IsValid = final.IsCompliant
	result.Metrics = final.Metrics
	result.Warnings = nil
	result.Suggestions = nil
	collectFindings(&result, final)

	if !current.Equal(c) {
		cc := current.Clone()
		result.CorrectedContent = &cc
	}
	if level := retry.Degradation(succeeded, failed); level != retry.DegradationNone {
		result.Degradation = string(level)
	}

	p.cacheResult(c, result)
	return result
}

// correctAspect runs one corrector under the retry manager. The operation
// fails when the aspect's issues survive the correction, which drives the
// strategy adaptation on the next attempt.
func (p *Pipeline) correctAspect(ctx context.Context, corrector correct.Corrector,
	c content.Content, issues []detect.Issue) (content.Content, error) {

	hint := issues[0].Description

	op := func(ctx context.Context, in content.Content, opts correct.Options) (content.Content, error) {
		out, err := corrector.Correct(ctx, in, opts)
		if err != nil {
			return in, err
		}
		after := p.Validate(out)
		if remaining := after.IssuesOf(aspectIssues[corrector.Name()]...); len(remaining) > 0 {
			// Keep the partial fix; the error text feeds classification.
			if len(remaining) < len(issues) || !out.Equal(in) {
				in = out
			}
			return in, fmt.Errorf("%s", remaining[0].Description)
		}
		return out, nil
	}

	res := p.retry.ExecuteWithRetry(ctx, op, c, hint)
	if res.Success {
		return res.Content, nil
	}
	// Exhausted retries. The best partial result still counts if it moved
	// the content at all.
	if !res.Content.Equal(c) {
		return res.Content, nil
	}
	return c, res.Err
}

func (p *Pipeline) cacheResult(original content.Content, result ValidationResult) {
	if p.cache == nil {
		return
	}
	p.cache.SetJSON(cache.TierValidationResult, p.resultKey(original), result, original.Hash())
}

func (p *Pipeline) resultKey(c content.Content) string {
	return cache.Key(c.Hash(), p.det.Thresholds().Signature(), c.FocusKeyword)
}

// collectFindings sorts detection issues into the result's warning and
// suggestion lists by severity.
func collectFindings(result *ValidationResult, d detect.Detection) {
	for _, issue := range d.Issues {
		switch issue.Severity {
		case detect.SeverityCritical, detect.SeverityMajor:
			result.Warnings = append(result.Warnings, issue.Description)
		default:
			result.Suggestions = append(result.Suggestions, issue.Description)
		}
	}
}
