package textstat

import "testing"

func TestWordCount(t *testing.T) {
	if n := WordCount("one two three"); n != 3 {
		t.Errorf("expected 3 words, got %d", n)
	}
	if n := WordCount(""); n != 0 {
		t.Errorf("expected 0 words for empty text, got %d", n)
	}
}

func TestSentences(t *testing.T) {
	s := Sentences("First sentence. Second one! Third?")
	if len(s) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(s), s)
	}
	if s[0] != "First sentence." {
		t.Errorf("unexpected first sentence: %q", s[0])
	}
}

func TestCountOccurrences(t *testing.T) {
	text := "Go testing is fun. Testing in Go beats testing elsewhere."
	if n := CountOccurrences(text, "testing"); n != 3 {
		t.Errorf("expected 3 occurrences, got %d", n)
	}
	// Word boundaries: "test" must not match inside "testing".
	if n := CountOccurrences(text, "test"); n != 0 {
		t.Errorf("expected 0 occurrences of bare 'test', got %d", n)
	}
}

func TestCountOccurrencesPhrase(t *testing.T) {
	text := "content marketing works. Content marketing scales."
	if n := CountOccurrences(text, "content marketing"); n != 2 {
		t.Errorf("expected 2 phrase occurrences, got %d", n)
	}
}

func TestKeywordDensity(t *testing.T) {
	// 10 words, keyword appears twice: 2/10 = 20%.
	text := "seo is good seo is great and that is all"
	got := KeywordDensity(text, "seo")
	if got != 20 {
		t.Errorf("expected density 20, got %.2f", got)
	}
	if KeywordDensity("", "seo") != 0 {
		t.Error("expected 0 density for empty text")
	}
	if KeywordDensity(text, "") != 0 {
		t.Error("expected 0 density for empty keyword")
	}
}

func TestLongSentencePercent(t *testing.T) {
	text := "Short one. " +
		"This sentence right here contains a very large number of words going well past any reasonable limit for readers to follow."
	got := LongSentencePercent(text, 20)
	if got != 50 {
		t.Errorf("expected 50%% long sentences, got %.1f", got)
	}
}

func TestPassiveVoicePercent(t *testing.T) {
	text := "The report was written by the team. The team writes reports."
	got := PassiveVoicePercent(text)
	if got != 50 {
		t.Errorf("expected 50%% passive, got %.1f", got)
	}
}

func TestIsPassiveSentence(t *testing.T) {
	cases := []struct {
		sentence string
		want     bool
	}{
		{"The cake was eaten by the dog.", true},
		{"Mistakes were made.", true},
		{"The dog ate the cake.", false},
		{"She is running fast.", false},
	}
	for _, c := range cases {
		if got := IsPassiveSentence(c.sentence); got != c.want {
			t.Errorf("IsPassiveSentence(%q) = %v, want %v", c.sentence, got, c.want)
		}
	}
}

func TestTransitionWordPercent(t *testing.T) {
	text := "However, this works. This part has no connector. Therefore, we ship it. Plain again."
	got := TransitionWordPercent(text)
	if got != 50 {
		t.Errorf("expected 50%% transitions, got %.1f", got)
	}
}

func TestHasTransition(t *testing.T) {
	if !HasTransition("Moreover, the cache stays warm.") {
		t.Error("expected transition to be found")
	}
	if HasTransition("The cache stays warm.") {
		t.Error("expected no transition")
	}
}
