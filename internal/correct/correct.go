// Package correct holds the per-aspect content correctors. Each corrector
// produces a new Content value; the input is never mutated. Template and
// synonym choices come from a seeded random source so corrections are
// reproducible.
package correct

import (
	"context"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/rewrite"
)

// Options carries per-attempt parameter adjustments. The retry layer
// makes these more aggressive on each failed attempt.
type Options struct {
	// TargetLengthBias is added to length targets (characters).
	TargetLengthBias int
	// ReductionPercent shortens prose targets by an extra fraction (0-1).
	ReductionPercent float64
}

// Corrector fixes one aspect of a content record.
type Corrector interface {
	Name() string
	Correct(ctx context.Context, c content.Content, opts Options) (content.Content, error)
}

// NewRand returns the correction random source. Seed 0 falls back to the
// clock; tests pass a fixed seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Set builds all correctors in a named lookup table.
func Set(t config.Thresholds, rng *rand.Rand, provider rewrite.Provider, maxTokens int) map[string]Corrector {
	return map[string]Corrector{
		"title":            &TitleCorrector{thresholds: t, rng: rng, provider: provider, maxTokens: maxTokens},
		"meta_description": &MetaDescriptionCorrector{thresholds: t, rng: rng, provider: provider, maxTokens: maxTokens},
		"keyword_density":  &KeywordDensityCorrector{thresholds: t, rng: rng},
		"readability":      &ReadabilityCorrector{thresholds: t, rng: rng},
		"subheadings":      &SubheadingCorrector{thresholds: t, rng: rng},
		"images":           &ImageCorrector{thresholds: t, rng: rng},
	}
}

// truncateAtWord cuts a string to at most max characters, breaking at the
// last word boundary and trimming trailing punctuation.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-")
}

// firstSentences returns the first sentences of a text joined, up to
// roughly max characters.
func firstSentences(text string, max int) string {
	var b strings.Builder
	for _, s := range splitSentences(text) {
		if b.Len() > 0 && b.Len()+len(s)+1 > max {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		if b.Len() >= max {
			break
		}
	}
	return b.String()
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// containsFold reports a case-insensitive substring match.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// titleCase uppercases the first letter of each significant word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
