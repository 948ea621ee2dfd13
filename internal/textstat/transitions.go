package textstat

import "strings"

// TransitionWords is the list of single- and multi-word transitions the
// readability check recognizes at any position in a sentence.
var TransitionWords = []string{
	"accordingly", "additionally", "afterward", "also", "although",
	"because", "besides", "consequently", "conversely", "finally",
	"first", "firstly", "furthermore", "hence", "however",
	"indeed", "instead", "likewise", "meanwhile", "moreover",
	"nevertheless", "next", "nonetheless", "otherwise", "second",
	"secondly", "similarly", "since", "still", "subsequently",
	"therefore", "third", "thirdly", "thus", "ultimately",
	"whereas", "while", "yet",
	"above all", "as a result", "at the same time", "for example",
	"for instance", "in addition", "in conclusion", "in contrast",
	"in fact", "in other words", "in short", "in summary",
	"on the contrary", "on the other hand", "to begin with",
	"to sum up",
}

// HasTransition reports whether a sentence contains a recognized
// transition word or phrase.
func HasTransition(sentence string) bool {
	words := Words(sentence)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	lower := " " + strings.Join(words, " ") + " "

	for _, t := range TransitionWords {
		if strings.Contains(t, " ") {
			if strings.Contains(lower, " "+t+" ") {
				return true
			}
		} else if set[t] {
			return true
		}
	}
	return false
}

// TransitionWordPercent returns the percentage of sentences containing at
// least one transition word.
func TransitionWordPercent(text string) float64 {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return 0
	}
	with := 0
	for _, s := range sentences {
		if HasTransition(s) {
			with++
		}
	}
	return float64(with) / float64(len(sentences)) * 100
}
