package correct

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/rewrite"
)

// titleSuffixes pad short titles. Chosen by the seeded random source.
var titleSuffixes = []string{
	"A Practical Guide",
	"What You Need to Know",
	"Explained",
	"Tips and Best Practices",
	"A Complete Overview",
}

const titleRewritePrompt = `Rewrite the following page title.
Requirements:
- between %d and %d characters
- must contain the phrase %q
- plain text, no quotes

Current title: %s

Respond with ONLY the rewritten title.`

// TitleCorrector makes the title carry the focus keyword within the
// configured length range.
type TitleCorrector struct {
	thresholds config.Thresholds
	rng        *rand.Rand
	provider   rewrite.Provider
	maxTokens  int
}

func (tc *TitleCorrector) Name() string { return "title" }

func (tc *TitleCorrector) Correct(ctx context.Context, c content.Content, opts Options) (content.Content, error) {
	out := c.Clone()
	minLen := tc.thresholds.MinTitleLength
	maxLen := tc.thresholds.MaxTitleLength + opts.TargetLengthBias
	if maxLen < minLen {
		maxLen = minLen
	}

	if tc.provider != nil {
		prompt := fmt.Sprintf(titleRewritePrompt, minLen, maxLen, c.FocusKeyword, c.Title)
		if resp, err := tc.provider.Rewrite(ctx, prompt, tc.maxTokens); err == nil {
			title := rewrite.StripFences(resp)
			if tc.acceptable(title, minLen, maxLen, c.FocusKeyword) {
				out.Title = title
				return out, nil
			}
		} else {
			log.Printf("title rewrite failed, using heuristics: %v", err)
		}
	}

	out.Title = tc.heuristic(c, minLen, maxLen)
	return out, nil
}

func (tc *TitleCorrector) acceptable(title string, minLen, maxLen int, keyword string) bool {
	if len(title) < minLen || len(title) > maxLen {
		return false
	}
	return keyword == "" || containsFold(title, keyword)
}

func (tc *TitleCorrector) heuristic(c content.Content, minLen, maxLen int) string {
	title := strings.TrimSpace(c.Title)

	if title == "" && c.FocusKeyword != "" {
		title = titleCase(c.FocusKeyword)
	}

	// Keyword placement first; trimming happens against the full string.
	if c.FocusKeyword != "" && !containsFold(title, c.FocusKeyword) {
		lead := titleCase(c.FocusKeyword)
		if title == "" {
			title = lead
		} else {
			title = lead + ": " + title
		}
	}

	if len(title) > maxLen {
		title = truncateAtWord(title, maxLen)
	}
	if len(title) < minLen {
		suffix := titleSuffixes[tc.rng.Intn(len(titleSuffixes))]
		candidate := title + " - " + suffix
		if len(candidate) > maxLen {
			candidate = truncateAtWord(candidate, maxLen)
		}
		if len(candidate) > len(title) {
			title = candidate
		}
	}
	return strings.TrimSpace(title)
}
