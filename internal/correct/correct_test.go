package correct

import (
	"context"
	"strings"
	"testing"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
	"github.com/lancedesk/seopass/internal/mdutil"
	"github.com/lancedesk/seopass/internal/textstat"
)

func thresholds() config.Thresholds {
	return config.Default().Thresholds
}

func seededSet() map[string]Corrector {
	return Set(thresholds(), NewRand(42), nil, 0)
}

func TestSetCoversEveryAspect(t *testing.T) {
	set := seededSet()
	for _, name := range []string{"title", "meta_description", "keyword_density", "readability", "subheadings", "images"} {
		c, ok := set[name]
		if !ok {
			t.Errorf("missing corrector %s", name)
			continue
		}
		if c.Name() != name {
			t.Errorf("corrector registered as %s reports name %s", name, c.Name())
		}
	}
}

func TestMetaCorrectorFixesShortDescriptionWithoutKeyword(t *testing.T) {
	th := thresholds()
	mc := &MetaDescriptionCorrector{thresholds: th, rng: NewRand(42)}

	in := content.Content{
		Title:           "Indoor Herb Gardens For Small Kitchens",
		Body:            "Basil thrives on a sunny windowsill. Mint spreads fast, so give it a pot of its own. Rosemary prefers drier soil than the rest. Water each herb when the top layer feels dry.",
		MetaDescription: strings.Repeat("x", 80),
		FocusKeyword:    "herb garden",
	}

	out, err := mc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.MetaDescription
	if len(got) < th.MinMetaDescLength || len(got) > th.MaxMetaDescLength {
		t.Errorf("expected length in [%d, %d], got %d: %q",
			th.MinMetaDescLength, th.MaxMetaDescLength, len(got), got)
	}
	if !containsFold(got, "herb garden") {
		t.Errorf("expected focus keyword in description: %q", got)
	}
	if in.MetaDescription != strings.Repeat("x", 80) {
		t.Error("input content must not be mutated")
	}
}

func TestMetaCorrectorBuildsDescriptionFromNothing(t *testing.T) {
	th := thresholds()
	mc := &MetaDescriptionCorrector{thresholds: th, rng: NewRand(42)}

	in := content.Content{
		Title:        "Composting At Home",
		Body:         "Compost needs greens and browns in balance. Turn the pile weekly for air. Moisture should feel like a wrung out sponge. Finished compost smells like forest soil.",
		FocusKeyword: "composting",
	}

	out, err := mc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MetaDescription) < th.MinMetaDescLength {
		t.Errorf("expected padded description, got %d chars", len(out.MetaDescription))
	}
	if !containsFold(out.MetaDescription, "composting") {
		t.Error("expected keyword in generated description")
	}
}

func TestKeywordCorrectorRaisesLowDensity(t *testing.T) {
	th := thresholds()
	kc := &KeywordDensityCorrector{thresholds: th, rng: NewRand(42)}

	filler := strings.Repeat("These plain sentences talk about nothing in particular at all. ", 10)
	in := content.Content{
		Title:        "Bread Baking Basics",
		Body:         filler + "\n\n" + filler + "\n\n" + filler,
		FocusKeyword: "bread baking",
	}

	before := textstat.KeywordDensity(mdutil.PlainText(in.Body), in.FocusKeyword)
	if before >= th.MinKeywordDensity {
		t.Fatalf("fixture density %.2f already in range", before)
	}

	out, err := kc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := textstat.KeywordDensity(mdutil.PlainText(out.Body), in.FocusKeyword)
	if after < th.MinKeywordDensity || after > th.MaxKeywordDensity {
		t.Errorf("expected density in [%.2f, %.2f], got %.2f", th.MinKeywordDensity, th.MaxKeywordDensity, after)
	}
}

func TestKeywordCorrectorLowersHighDensity(t *testing.T) {
	th := thresholds()
	kc := &KeywordDensityCorrector{thresholds: th, rng: NewRand(42)}

	in := content.Content{
		Title:             "Bread Baking Basics",
		Body:              strings.Repeat("Bread baking is great and bread baking is fun for everyone involved today. ", 8),
		FocusKeyword:      "bread baking",
		SecondaryKeywords: []string{"sourdough"},
	}

	out, err := kc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := textstat.KeywordDensity(mdutil.PlainText(out.Body), in.FocusKeyword)
	if after > th.MaxKeywordDensity {
		t.Errorf("expected density lowered below %.2f, got %.2f", th.MaxKeywordDensity, after)
	}
	if !strings.Contains(out.Body, "sourdough") {
		t.Error("expected secondary keyword substituted in")
	}
}

func TestTitleCorrectorAddsKeywordAndRespectsLength(t *testing.T) {
	th := thresholds()
	tc := &TitleCorrector{thresholds: th, rng: NewRand(42)}

	in := content.Content{
		Title:        "Better Mornings Start The Night Before",
		FocusKeyword: "sleep hygiene",
	}
	out, err := tc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsFold(out.Title, "sleep hygiene") {
		t.Errorf("expected keyword in title: %q", out.Title)
	}
	if len(out.Title) < th.MinTitleLength || len(out.Title) > th.MaxTitleLength {
		t.Errorf("expected length in [%d, %d], got %d: %q",
			th.MinTitleLength, th.MaxTitleLength, len(out.Title), out.Title)
	}
}

func TestTitleCorrectorBuildsTitleFromKeyword(t *testing.T) {
	th := thresholds()
	tc := &TitleCorrector{thresholds: th, rng: NewRand(42)}

	out, err := tc.Correct(context.Background(), content.Content{FocusKeyword: "home office setup"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsFold(out.Title, "home office setup") {
		t.Errorf("expected keyword in generated title: %q", out.Title)
	}
	if len(out.Title) <= len("Home Office Setup") {
		t.Errorf("expected padded title, got %d chars: %q", len(out.Title), out.Title)
	}
	if len(out.Title) > th.MaxTitleLength {
		t.Errorf("expected title within %d chars, got %d", th.MaxTitleLength, len(out.Title))
	}
}

func TestImageCorrectorFillsPlanAndAlts(t *testing.T) {
	th := thresholds()
	ic := &ImageCorrector{thresholds: th, rng: NewRand(42)}

	in := content.Content{
		Title:        "Hiking The Coastal Trail",
		FocusKeyword: "coastal hiking",
		ImagePrompts: []content.ImagePrompt{{Prompt: "trail map", Alt: ""}},
	}
	out, err := ic.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.ImagePrompts) < th.MinImages {
		t.Errorf("expected at least %d images, got %d", th.MinImages, len(out.ImagePrompts))
	}
	keywordSeen := false
	for _, img := range out.ImagePrompts {
		if strings.TrimSpace(img.Alt) == "" {
			t.Errorf("image %q still has empty alt", img.Prompt)
		}
		if containsFold(img.Alt, "coastal hiking") {
			keywordSeen = true
		}
	}
	if !keywordSeen {
		t.Error("expected at least one alt to mention the focus keyword")
	}
}

func TestImageCorrectorCreatesMissingImages(t *testing.T) {
	ic := &ImageCorrector{thresholds: thresholds(), rng: NewRand(42)}

	out, err := ic.Correct(context.Background(), content.Content{FocusKeyword: "city cycling"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.ImagePrompts) == 0 {
		t.Fatal("expected generated image plan")
	}
	if out.ImagePrompts[0].Alt == "" {
		t.Error("expected generated alt text")
	}
}

func TestReadabilityCorrectorAddsTransitions(t *testing.T) {
	th := thresholds()
	rc := &ReadabilityCorrector{thresholds: th, rng: NewRand(42)}

	body := "The oven heats first. The dough rests meanwhile on the counter. " +
		"The loaf bakes for forty minutes. The crust turns deep brown. " +
		"The bread cools on a rack. The first slice waits an hour."
	in := content.Content{Body: body}

	out, err := rc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := textstat.TransitionWordPercent(out.Body)
	if after < th.MinTransitionWordPercent {
		t.Errorf("expected transition percent >= %.1f, got %.1f", th.MinTransitionWordPercent, after)
	}
}

func TestReadabilityCorrectorFlipsSimplePassive(t *testing.T) {
	rc := &ReadabilityCorrector{thresholds: thresholds(), rng: NewRand(42)}

	in := content.Content{Body: "The draft was reviewed by the editor. The fix was shipped by the team."}
	out, err := rc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out.Body, "was reviewed by") {
		t.Errorf("expected passive flipped, got %q", out.Body)
	}
	if !strings.Contains(out.Body, "the editor reviewed") {
		t.Errorf("expected active form, got %q", out.Body)
	}
}

func TestReadabilityCorrectorSplitsLongSentences(t *testing.T) {
	th := thresholds()
	rc := &ReadabilityCorrector{thresholds: th, rng: NewRand(42)}

	long := "The recipe works well for most home bakers because the timings are forgiving, and the ingredient list stays short enough that nothing obscure is ever required."
	in := content.Content{Body: long}

	out, err := rc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := textstat.LongSentencePercent(out.Body, th.LongSentenceWordLimit)
	if after > th.MaxLongSentencePercent {
		t.Errorf("expected long sentences reduced, still %.1f%%", after)
	}
}

func TestSubheadingCorrectorReducesKeywordStuffing(t *testing.T) {
	th := thresholds()
	sc := &SubheadingCorrector{thresholds: th, rng: NewRand(42)}

	in := content.Content{
		Body: "## Trail Running Shoes\n\ntext\n\n## Trail Running Form\n\ntext\n\n" +
			"## Trail Running Nutrition\n\ntext\n\n## Trail Running Recovery\n\ntext",
		FocusKeyword:      "trail running",
		SecondaryKeywords: []string{"ultrarunning"},
	}

	out, err := sc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	headings := mdutil.Headings(out.Body)
	with := 0
	for _, h := range headings {
		if textstat.CountOccurrences(h.Text, "trail running") > 0 {
			with++
		}
	}
	percent := float64(with) / float64(len(headings)) * 100
	if percent > th.MaxSubheadingKeywordPercent {
		t.Errorf("expected <= %.0f%% headings with keyword, got %.0f%%", th.MaxSubheadingKeywordPercent, percent)
	}
	// The lead heading keeps its keyword; rewrites start from the end.
	if textstat.CountOccurrences(headings[0].Text, "trail running") == 0 {
		t.Error("expected first heading to keep the keyword")
	}
}

func TestFoldMatchingSurvivesMultibyteCaseFolds(t *testing.T) {
	// "İ" occupies two bytes but lowercases to a one-byte "i", so offsets
	// into a lowercased copy would not line up with the original.
	heading := "## Menü für İstanbul Travel und İSTANBUL Tips"

	idx, n := indexFold(heading, "istanbul")
	if idx < 0 {
		t.Fatal("expected a first match")
	}
	if got := heading[idx : idx+n]; got != "İstanbul" {
		t.Errorf("first match = %q, want %q", got, "İstanbul")
	}

	last, n := lastIndexFold(heading, "istanbul")
	if last < 0 {
		t.Fatal("expected a last match")
	}
	if got := heading[last : last+n]; got != "İSTANBUL" {
		t.Errorf("last match = %q, want %q", got, "İSTANBUL")
	}
}

func TestSubheadingCorrectorSplicesAroundMultibyteRunes(t *testing.T) {
	sc := &SubheadingCorrector{thresholds: thresholds(), rng: NewRand(42)}

	// The "İ" before the keyword shrinks when lowercased, so a splice
	// computed against a folded copy would land one byte off.
	in := content.Content{
		Body: "## Trail Running Shoes\n\ntext\n\n## Trail Running Form\n\ntext\n\n" +
			"## Trail Running Fuel\n\ntext\n\n## İzmir Trail Running Tips\n\ntext",
		FocusKeyword:      "trail running",
		SecondaryKeywords: []string{"ultrarunning"},
	}

	out, err := sc.Correct(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Body, "## İzmir Ultrarunning Tips") {
		t.Errorf("expected a clean keyword swap in the last heading, got %q", out.Body)
	}
	if !strings.Contains(out.Body, "## Trail Running Shoes") {
		t.Errorf("expected the lead heading untouched, got %q", out.Body)
	}
}

func TestCorrectorsNeverMutateInput(t *testing.T) {
	in := content.Content{
		Title:        "A Fixed Input Title For Mutation Checks",
		Body:         "Some body. It stays put.",
		FocusKeyword: "mutation",
		ImagePrompts: []content.ImagePrompt{{Prompt: "p", Alt: ""}},
	}
	snapshot := in.Hash()

	for name, c := range seededSet() {
		if _, err := c.Correct(context.Background(), in, Options{}); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if in.Hash() != snapshot {
			t.Fatalf("%s mutated its input", name)
		}
	}
}
