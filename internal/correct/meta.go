package correct

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/mdutil"
	"github.com/lancedesk/seopass/internal/rewrite"
)

// metaLeadTemplates introduce a generated meta description. Chosen by the
// seeded random source.
var metaLeadTemplates = []string{
	"Learn everything about %s.",
	"Discover how %s works and why it matters.",
	"A practical guide to %s.",
	"Everything you need to know about %s.",
}

const metaRewritePrompt = `Rewrite the following meta description for a web page.
Requirements:
- between %d and %d characters
- must contain the phrase %q
- plain text, no quotes, no markdown

Page title: %s
Current description: %s

Respond with ONLY the rewritten description.`

// MetaDescriptionCorrector brings the meta description into the
// configured length range and makes sure it mentions the focus keyword.
type MetaDescriptionCorrector struct {
	thresholds config.Thresholds
	rng        *rand.Rand
	provider   rewrite.Provider
	maxTokens  int
}

func (mc *MetaDescriptionCorrector) Name() string { return "meta_description" }

// Correct rewrites the meta description. An LLM provider is used when
// configured; the heuristic path always runs as fallback and as the
// validator of the provider's output.
func (mc *MetaDescriptionCorrector) Correct(ctx context.Context, c content.Content, opts Options) (content.Content, error) {
	out := c.Clone()
	minLen := mc.thresholds.MinMetaDescLength + opts.TargetLengthBias
	maxLen := mc.thresholds.MaxMetaDescLength
	if minLen > maxLen {
		minLen = maxLen
	}

	if mc.provider != nil {
		if desc, err := mc.rewriteViaProvider(ctx, c, minLen, maxLen); err == nil && desc != "" {
			out.MetaDescription = desc
			if mc.acceptable(out, minLen, maxLen) {
				return out, nil
			}
			// Provider output failed validation; fall through to heuristics
			// starting from its attempt.
		} else if err != nil {
			log.Printf("meta description rewrite failed, using heuristics: %v", err)
		}
	}

	out.MetaDescription = mc.heuristic(c, minLen, maxLen, opts)
	return out, nil
}

func (mc *MetaDescriptionCorrector) rewriteViaProvider(ctx context.Context, c content.Content, minLen, maxLen int) (string, error) {
	prompt := fmt.Sprintf(metaRewritePrompt, minLen, maxLen, c.FocusKeyword, c.Title, c.MetaDescription)
	resp, err := mc.provider.Rewrite(ctx, prompt, mc.maxTokens)
	if err != nil {
		return "", err
	}
	return rewrite.StripFences(resp), nil
}

func (mc *MetaDescriptionCorrector) acceptable(c content.Content, minLen, maxLen int) bool {
	l := len(c.MetaDescription)
	if l < minLen || l > maxLen {
		return false
	}
	return c.FocusKeyword == "" || containsFold(c.MetaDescription, c.FocusKeyword)
}

// heuristic builds a description from what the content already says.
func (mc *MetaDescriptionCorrector) heuristic(c content.Content, minLen, maxLen int, opts Options) string {
	desc := strings.TrimSpace(c.MetaDescription)

	// Start from the excerpt or the body lead when nothing usable exists.
	if desc == "" {
		if c.Excerpt != "" {
			desc = strings.TrimSpace(c.Excerpt)
		} else {
			desc = firstSentences(mdutil.PlainText(c.Body), maxLen)
		}
	}
	if desc == "" && c.FocusKeyword != "" {
		tmpl := metaLeadTemplates[mc.rng.Intn(len(metaLeadTemplates))]
		desc = fmt.Sprintf(tmpl, c.FocusKeyword)
	}

	// Keyword first: trimming afterwards could otherwise cut it back out.
	if c.FocusKeyword != "" && !containsFold(desc, c.FocusKeyword) {
		lead := titleCase(c.FocusKeyword) + ": "
		if len(lead)+len(desc) <= maxLen {
			desc = lead + desc
		} else {
			budget := maxLen - len(lead)
			if budget < 0 {
				budget = 0
			}
			desc = lead + truncateAtWord(desc, budget)
		}
	}

	// Pad up to the minimum from body prose, then from a template.
	if len(desc) < minLen {
		for _, s := range splitSentences(mdutil.PlainText(c.Body)) {
			if containsFold(desc, s) {
				continue
			}
			candidate := strings.TrimSpace(desc + " " + s)
			if len(candidate) > maxLen {
				break
			}
			desc = candidate
			if len(desc) >= minLen {
				break
			}
		}
	}
	if len(desc) < minLen && c.FocusKeyword != "" {
		tmpl := metaLeadTemplates[mc.rng.Intn(len(metaLeadTemplates))]
		filler := " " + fmt.Sprintf(tmpl, c.FocusKeyword)
		for len(desc) < minLen && len(desc)+len(filler) <= maxLen {
			desc += filler
		}
	}

	if opts.ReductionPercent > 0 {
		target := int(float64(maxLen) * (1 - opts.ReductionPercent))
		if target < minLen {
			target = minLen
		}
		desc = truncateAtWord(desc, target)
	}
	if len(desc) > maxLen {
		desc = truncateAtWord(desc, maxLen)
	}
	return strings.TrimSpace(desc)
}
