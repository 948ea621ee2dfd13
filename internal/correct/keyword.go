package correct

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/mdutil"
	"github.com/lancedesk/seopass/internal/textstat"
)

// keywordSentenceTemplates are appended to paragraphs to raise density
// without disturbing existing prose.
var keywordSentenceTemplates = []string{
	"This is where %s makes a real difference.",
	"Understanding %s helps at every step here.",
	"In short, %s is central to this topic.",
	"Keep %s in mind as you read on.",
}

// KeywordDensityCorrector nudges the focus keyword density into the
// configured range: low density adds keyword sentences to paragraphs,
// high density swaps occurrences for secondary keywords.
type KeywordDensityCorrector struct {
	thresholds config.Thresholds
	rng        *rand.Rand
}

func (kc *KeywordDensityCorrector) Name() string { return "keyword_density" }

func (kc *KeywordDensityCorrector) Correct(_ context.Context, c content.Content, _ Options) (content.Content, error) {
	out := c.Clone()
	if c.FocusKeyword == "" {
		return out, nil
	}

	plain := mdutil.PlainText(out.Body)
	density := textstat.KeywordDensity(plain, out.FocusKeyword)

	switch {
	case density < kc.thresholds.MinKeywordDensity:
		out.Body = kc.raiseDensity(out)
	case density > kc.thresholds.MaxKeywordDensity:
		out.Body = kc.lowerDensity(out)
	}
	return out, nil
}

// raiseDensity appends keyword sentences to paragraphs until the density
// target is met. Markdown block structure is preserved: insertions only
// extend prose paragraphs, never headings or code.
func (kc *KeywordDensityCorrector) raiseDensity(c content.Content) string {
	target := (kc.thresholds.MinKeywordDensity + kc.thresholds.MaxKeywordDensity) / 2
	phraseLen := len(textstat.Words(c.FocusKeyword))
	if phraseLen == 0 {
		return c.Body
	}

	body := c.Body
	blocks := strings.Split(body, "\n\n")
	for i := range blocks {
		plain := mdutil.PlainText(body)
		density := textstat.KeywordDensity(plain, c.FocusKeyword)
		if density >= target {
			break
		}
		block := strings.TrimSpace(blocks[i])
		if block == "" || strings.HasPrefix(block, "#") || strings.HasPrefix(block, "```") ||
			strings.HasPrefix(block, "-") || strings.HasPrefix(block, "*") ||
			strings.HasPrefix(block, ">") || strings.HasPrefix(block, "!") {
			continue
		}
		tmpl := keywordSentenceTemplates[kc.rng.Intn(len(keywordSentenceTemplates))]
		blocks[i] = block + " " + fmt.Sprintf(tmpl, c.FocusKeyword)
		body = strings.Join(blocks, "\n\n")
	}
	return body
}

// lowerDensity replaces surplus keyword occurrences with a secondary
// keyword, or a generic reference when none is configured.
func (kc *KeywordDensityCorrector) lowerDensity(c content.Content) string {
	replacement := "it"
	if len(c.SecondaryKeywords) > 0 {
		replacement = c.SecondaryKeywords[kc.rng.Intn(len(c.SecondaryKeywords))]
	}

	target := (kc.thresholds.MinKeywordDensity + kc.thresholds.MaxKeywordDensity) / 2
	body := c.Body
	// Replace from the end so the keyword stays prominent in the lead.
	for textstat.KeywordDensity(mdutil.PlainText(body), c.FocusKeyword) > target {
		idx, n := lastIndexFold(body, c.FocusKeyword)
		if idx < 0 {
			break
		}
		body = body[:idx] + replacement + body[idx+n:]
	}
	return body
}

// lastIndexFold locates the last case-insensitive occurrence of needle in
// haystack, returning its byte offset and matched length in haystack
// itself. Lowercasing can change byte lengths for some letters, so
// offsets into a folded copy are not safe to splice with.
func lastIndexFold(haystack, needle string) (idx, length int) {
	idx, length = -1, 0
	if needle == "" {
		return idx, length
	}
	for i := range haystack {
		if n := foldPrefixLen(haystack[i:], needle); n > 0 {
			idx, length = i, n
		}
	}
	return idx, length
}

// indexFold is the first-occurrence counterpart of lastIndexFold.
func indexFold(haystack, needle string) (idx, length int) {
	if needle == "" {
		return -1, 0
	}
	for i := range haystack {
		if n := foldPrefixLen(haystack[i:], needle); n > 0 {
			return i, n
		}
	}
	return -1, 0
}

// foldPrefixLen reports how many bytes at the start of s match needle
// case-insensitively, or 0 when they do not.
func foldPrefixLen(s, needle string) int {
	var i int
	for _, nr := range needle {
		r, size := utf8.DecodeRuneInString(s[i:])
		if size == 0 || unicode.ToLower(r) != unicode.ToLower(nr) {
			return 0
		}
		i += size
	}
	return i
}
