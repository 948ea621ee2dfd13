// Package preserve guards the structural integrity of content across a
// correction pass. A correction that gains score by mangling the document
// structure is worse than no correction, so the optimizer rolls those back.
package preserve

import (
	"fmt"
	"strings"

	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/mdutil"
)

// minBodyRetention is the fraction of the original word count a corrected
// body must keep. Corrections trim sentences but never gut the document.
const minBodyRetention = 0.5

// CheckResult reports the outcome of a structure check.
type CheckResult struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations,omitempty"`
}

// Preserver compares document structure before and after a correction.
type Preserver struct{}

// New creates a structure preserver.
func New() *Preserver {
	return &Preserver{}
}

// Check verifies that a corrected version keeps the structural shape of
// the original: the title stays non-empty, headings survive at the same
// levels, and the body does not collapse.
func (p *Preserver) Check(before, after content.Content) CheckResult {
	var violations []string

	if strings.TrimSpace(after.Title) == "" && strings.TrimSpace(before.Title) != "" {
		violations = append(violations, "title was emptied")
	}

	bo := mdutil.ExtractOutline(before.Body)
	ao := mdutil.ExtractOutline(after.Body)

	if len(ao.Headings) < len(bo.Headings) {
		violations = append(violations, fmt.Sprintf(
			"headings dropped from %d to %d", len(bo.Headings), len(ao.Headings)))
	} else {
		for i, h := range bo.Headings {
			if ao.Headings[i].Level != h.Level {
				violations = append(violations, fmt.Sprintf(
					"heading %d changed level from %d to %d", i+1, h.Level, ao.Headings[i].Level))
				break
			}
		}
	}

	if ao.CodeBlockCount < bo.CodeBlockCount {
		violations = append(violations, fmt.Sprintf(
			"code blocks dropped from %d to %d", bo.CodeBlockCount, ao.CodeBlockCount))
	}
	if ao.ListCount < bo.ListCount {
		violations = append(violations, fmt.Sprintf(
			"lists dropped from %d to %d", bo.ListCount, ao.ListCount))
	}

	if bo.WordEstimate > 0 {
		retained := float64(ao.WordEstimate) / float64(bo.WordEstimate)
		if retained < minBodyRetention {
			violations = append(violations, fmt.Sprintf(
				"body shrank to %.0f%% of its original length", retained*100))
		}
	}

	return CheckResult{OK: len(violations) == 0, Violations: violations}
}
