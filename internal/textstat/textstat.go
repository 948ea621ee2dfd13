// Package textstat computes the surface text metrics the issue detector
// validates against: keyword density, passive-voice ratio, sentence length
// distribution, and transition-word usage. All heuristics work on plain
// text; markdown markup should be stripped by the caller first.
package textstat

import (
	"regexp"
	"strings"
	"unicode"
)

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

// Words returns the lowercased word tokens of a text.
func Words(text string) []string {
	raw := wordRe.FindAllString(text, -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		words = append(words, strings.ToLower(strings.Trim(w, "'")))
	}
	return words
}

// WordCount returns the number of word tokens in a text.
func WordCount(text string) int {
	return len(wordRe.FindAllString(text, -1))
}

// Sentences splits a text into sentences on terminal punctuation.
// Abbreviation handling is deliberately naive; the metrics that consume
// this are ratio-based and tolerate minor over-splitting.
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Sentence ends only if followed by space+capital or end of text.
			end := i == len(runes)-1
			if !end {
				j := i + 1
				for j < len(runes) && unicode.IsSpace(runes[j]) {
					j++
				}
				end = j == len(runes) || unicode.IsUpper(runes[j]) || runes[j] == '#' || runes[j] == '-' || runes[j] == '*'
				if j == i+1 {
					end = false // no whitespace after the dot, likely "3.5" or "e.g."
				}
			}
			if end {
				s := strings.TrimSpace(current.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
		if r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
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

// CountOccurrences counts case-insensitive, word-boundary occurrences of a
// phrase in a text.
func CountOccurrences(text, phrase string) int {
	phrase = strings.TrimSpace(strings.ToLower(phrase))
	if phrase == "" {
		return 0
	}
	words := Words(text)
	parts := Words(phrase)
	if len(parts) == 0 {
		return 0
	}

	count := 0
	for i := 0; i+len(parts) <= len(words); i++ {
		match := true
		for j, p := range parts {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}

// KeywordDensity returns the percentage of words covered by occurrences of
// the keyword phrase. A two-word phrase occurring 3 times in 200 words has
// density 3*2/200 = 3%.
func KeywordDensity(text, keyword string) float64 {
	total := WordCount(text)
	if total == 0 {
		return 0
	}
	phraseLen := len(Words(keyword))
	if phraseLen == 0 {
		return 0
	}
	occ := CountOccurrences(text, keyword)
	return float64(occ*phraseLen) / float64(total) * 100
}

// LongSentencePercent returns the percentage of sentences longer than
// wordLimit words.
func LongSentencePercent(text string, wordLimit int) float64 {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return 0
	}
	long := 0
	for _, s := range sentences {
		if WordCount(s) > wordLimit {
			long++
		}
	}
	return float64(long) / float64(len(sentences)) * 100
}
