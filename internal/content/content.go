package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Content is one piece of content moving through the optimizer. Correctors
// never mutate a Content in place; each pass works on a fresh clone.
type Content struct {
	Title             string        `json:"title"`
	Body              string        `json:"content"`
	MetaDescription   string        `json:"meta_description"`
	Excerpt           string        `json:"excerpt,omitempty"`
	FocusKeyword      string        `json:"focus_keyword"`
	SecondaryKeywords []string      `json:"secondary_keywords,omitempty"`
	ImagePrompts      []ImagePrompt `json:"image_prompts,omitempty"`
	InternalLinks     []Link        `json:"internal_links,omitempty"`
	OutboundLinks     []Link        `json:"outbound_links,omitempty"`
}

// ImagePrompt describes a planned image and its alt text.
type ImagePrompt struct {
	Prompt string `json:"prompt"`
	Alt    string `json:"alt"`
}

// Link is an internal or outbound link reference.
type Link struct {
	URL    string `json:"url"`
	Anchor string `json:"anchor"`
}

// Clone returns a deep copy. Slices are copied so a corrector working on
// the clone cannot alias the original.
func (c Content) Clone() Content {
	out := c
	if c.SecondaryKeywords != nil {
		out.SecondaryKeywords = append([]string(nil), c.SecondaryKeywords...)
	}
	if c.ImagePrompts != nil {
		out.ImagePrompts = append([]ImagePrompt(nil), c.ImagePrompts...)
	}
	if c.InternalLinks != nil {
		out.InternalLinks = append([]Link(nil), c.InternalLinks...)
	}
	if c.OutboundLinks != nil {
		out.OutboundLinks = append([]Link(nil), c.OutboundLinks...)
	}
	return out
}

// Hash returns a stable SHA-256 hex digest of the content. Secondary
// keywords are sorted first so keyword order does not change the hash.
func (c Content) Hash() string {
	kws := append([]string(nil), c.SecondaryKeywords...)
	sort.Strings(kws)

	var b strings.Builder
	b.WriteString(c.Title)
	b.WriteByte(0)
	b.WriteString(c.Body)
	b.WriteByte(0)
	b.WriteString(c.MetaDescription)
	b.WriteByte(0)
	b.WriteString(c.Excerpt)
	b.WriteByte(0)
	b.WriteString(c.FocusKeyword)
	b.WriteByte(0)
	b.WriteString(strings.Join(kws, "\x01"))
	b.WriteByte(0)
	for _, img := range c.ImagePrompts {
		b.WriteString(img.Prompt)
		b.WriteByte(1)
		b.WriteString(img.Alt)
		b.WriteByte(1)
	}
	for _, l := range c.InternalLinks {
		b.WriteString(l.URL)
		b.WriteByte(2)
	}
	for _, l := range c.OutboundLinks {
		b.WriteString(l.URL)
		b.WriteByte(3)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two contents hash identically. Used to detect
// no-op corrections.
func (c Content) Equal(other Content) bool {
	return c.Hash() == other.Hash()
}

// Load reads a content record from a JSON file.
func Load(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("reading content file: %w", err)
	}
	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("parsing content file: %w", err)
	}
	return c, nil
}

// Save writes a content record to a JSON file.
func (c Content) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding content: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing content file: %w", err)
	}
	return nil
}
