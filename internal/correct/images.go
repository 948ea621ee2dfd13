package correct

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/lancedesk/seopass/internal/config"
	"github.com/lancedesk/seopass/internal/content"
)

// imagePromptTemplates generate a first image plan when none exists.
var imagePromptTemplates = []string{
	"Illustration of %s in a clean editorial style",
	"Photo-realistic scene showing %s",
	"Simple diagram explaining %s",
}

// ImageCorrector ensures the content plans at least the minimum number of
// images, every image has alt text, and at least one alt mentions the
// focus keyword.
type ImageCorrector struct {
	thresholds config.Thresholds
	rng        *rand.Rand
}

func (ic *ImageCorrector) Name() string { return "images" }

func (ic *ImageCorrector) Correct(_ context.Context, c content.Content, _ Options) (content.Content, error) {
	out := c.Clone()
	subject := out.FocusKeyword
	if subject == "" {
		subject = out.Title
	}

	for len(out.ImagePrompts) < ic.thresholds.MinImages {
		tmpl := imagePromptTemplates[ic.rng.Intn(len(imagePromptTemplates))]
		out.ImagePrompts = append(out.ImagePrompts, content.ImagePrompt{
			Prompt: fmt.Sprintf(tmpl, subject),
			Alt:    altFromSubject(subject),
		})
	}

	keywordSeen := false
	for i, img := range out.ImagePrompts {
		if strings.TrimSpace(img.Alt) == "" {
			alt := altFromSubject(subject)
			if img.Prompt != "" {
				alt = truncateAtWord(img.Prompt, 100)
			}
			out.ImagePrompts[i].Alt = alt
		}
		if out.FocusKeyword != "" && containsFold(out.ImagePrompts[i].Alt, out.FocusKeyword) {
			keywordSeen = true
		}
	}

	if out.FocusKeyword != "" && !keywordSeen && len(out.ImagePrompts) > 0 {
		out.ImagePrompts[0].Alt = strings.TrimSpace(
			titleCase(out.FocusKeyword) + " - " + out.ImagePrompts[0].Alt)
	}
	return out, nil
}

func altFromSubject(subject string) string {
	if subject == "" {
		return "Article illustration"
	}
	return "Visual overview of " + subject
}
