package correct

import (
	"context"
	"math/rand"
	"strings"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/textstat"
)

// SubheadingCorrector reduces keyword stuffing in subheadings by swapping
// the focus keyword for a secondary keyword in the surplus headings.
type SubheadingCorrector struct {
	thresholds config.Thresholds
	rng        *rand.Rand
}

func (sc *SubheadingCorrector) Name() string { return "subheadings" }

func (sc *SubheadingCorrector) Correct(_ context.Context, c content.Content, _ Options) (content.Content, error) {
	out := c.Clone()
	if out.FocusKeyword == "" {
		return out, nil
	}

	lines := strings.Split(out.Body, "\n")
	var headingIdx []int
	var withKeyword []int
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "##") {
			continue
		}
		headingIdx = append(headingIdx, i)
		if textstat.CountOccurrences(trimmed, out.FocusKeyword) > 0 {
			withKeyword = append(withKeyword, i)
		}
	}
	if len(headingIdx) == 0 {
		return out, nil
	}

	maxAllowed := int(sc.thresholds.MaxSubheadingKeywordPercent / 100 * float64(len(headingIdx)))
	if len(withKeyword) <= maxAllowed {
		return out, nil
	}

	// Rewrite from the last heading backwards so the lead sections keep
	// their keyword.
	excess := len(withKeyword) - maxAllowed
	for i := len(withKeyword) - 1; i >= 0 && excess > 0; i-- {
		idx := withKeyword[i]
		lines[idx] = sc.replaceKeyword(lines[idx], out.FocusKeyword, out.SecondaryKeywords)
		excess--
	}
	out.Body = strings.Join(lines, "\n")
	return out, nil
}

func (sc *SubheadingCorrector) replaceKeyword(heading, keyword string, secondary []string) string {
	replacement := "More Details"
	if len(secondary) > 0 {
		replacement = titleCase(secondary[sc.rng.Intn(len(secondary))])
	}
	idx, n := indexFold(heading, keyword)
	if idx < 0 {
		return heading
	}
	return heading[:idx] + replacement + heading[idx+n:]
}
