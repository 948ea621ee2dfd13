package textstat

import "strings"

// Auxiliary verbs that can introduce a passive construction.
var auxiliaries = map[string]bool{
	"am": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"get": true, "gets": true, "got": true, "gotten": true,
}

// Irregular past participles that don't end in -ed.
var irregularParticiples = map[string]bool{
	"born": true, "begun": true, "bitten": true, "blown": true, "broken": true,
	"brought": true, "built": true, "bought": true, "caught": true, "chosen": true,
	"done": true, "drawn": true, "driven": true, "eaten": true, "fallen": true,
	"felt": true, "forgotten": true, "found": true, "frozen": true, "given": true,
	"gone": true, "grown": true, "held": true, "hidden": true, "hit": true,
	"kept": true, "known": true, "laid": true, "led": true, "left": true,
	"lost": true, "made": true, "meant": true, "met": true, "paid": true,
	"put": true, "read": true, "run": true, "said": true, "seen": true,
	"sent": true, "set": true, "shown": true, "sold": true, "spent": true,
	"spoken": true, "taken": true, "taught": true, "thrown": true, "told": true,
	"understood": true, "worn": true, "written": true, "won": true,
}

// IsPassiveSentence reports whether a sentence contains an auxiliary verb
// followed (within two words) by a past participle. This is the classic
// surface heuristic; gerunds after "is" ("is running") do not match.
func IsPassiveSentence(sentence string) bool {
	words := Words(sentence)
	for i, w := range words {
		if !auxiliaries[w] {
			continue
		}
		limit := i + 3
		if limit > len(words) {
			limit = len(words)
		}
		for j := i + 1; j < limit; j++ {
			if isParticiple(words[j]) {
				return true
			}
		}
	}
	return false
}

func isParticiple(word string) bool {
	if irregularParticiples[word] {
		return true
	}
	// "-ed" forms, excluding short words like "red" or "bed".
	return len(word) > 4 && strings.HasSuffix(word, "ed")
}

// PassiveVoicePercent returns the percentage of sentences written in
// passive voice.
func PassiveVoicePercent(text string) float64 {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return 0
	}
	passive := 0
	for _, s := range sentences {
		if IsPassiveSentence(s) {
			passive++
		}
	}
	return float64(passive) / float64(len(sentences)) * 100
}
