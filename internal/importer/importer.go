// Package importer pulls external pages and feed entries into content
// records so existing articles can be validated and optimized.
package importer

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/lancedesk/seopass/internal/content"
)

const defaultFeedLimit = 20

// Importer fetches pages and feeds over HTTP.
type Importer struct {
	client *http.Client
}

// New creates an importer with the given timeout.
func New(timeout time.Duration) *Importer {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Importer{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Page fetches one URL and converts it into a content record: readable
// body text, meta description, images with their alt text, and links
// split into internal and outbound by host.
func (im *Importer) Page(pageURL string) (*content.Content, error) {
	body, err := im.get(pageURL)
	if err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting article: %w", err)
	}

	c := &content.Content{
		Title:           strings.TrimSpace(article.Title),
		Body:            strings.TrimSpace(article.TextContent),
		MetaDescription: strings.TrimSpace(article.Excerpt),
		Excerpt:         strings.TrimSpace(article.Excerpt),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		log.Printf("importer: document parse failed for %s: %v", pageURL, err)
		return c, nil
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		c.MetaDescription = strings.TrimSpace(desc)
	}
	if c.Title == "" {
		c.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			return
		}
		alt, _ := s.Attr("alt")
		c.ImagePrompts = append(c.ImagePrompts, content.ImagePrompt{
			Prompt: src,
			Alt:    strings.TrimSpace(alt),
		})
	})

	host := strings.ToLower(parsedURL.Host)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := parsedURL.Parse(href)
		if err != nil || (ref.Scheme != "http" && ref.Scheme != "https") {
			return
		}
		link := content.Link{URL: ref.String(), Anchor: strings.TrimSpace(s.Text())}
		if strings.ToLower(ref.Host) == host {
			c.InternalLinks = append(c.InternalLinks, link)
		} else {
			c.OutboundLinks = append(c.OutboundLinks, link)
		}
	})

	return c, nil
}

// Feed parses an RSS or Atom feed and converts its entries into content
// records, newest first, up to limit.
func (im *Importer) Feed(feedURL string, limit int) ([]content.Content, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	parser := gofeed.NewParser()
	parser.Client = im.client
	feed, err := parser.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var records []content.Content
	for _, item := range feed.Items {
		if len(records) >= limit {
			break
		}
		c := feedItemContent(item)
		if c == nil {
			continue
		}
		records = append(records, *c)
	}
	log.Printf("importer: %d entries from %s", len(records), feedURL)
	return records, nil
}

func feedItemContent(item *gofeed.Item) *content.Content {
	if item == nil || strings.TrimSpace(item.Title) == "" {
		return nil
	}
	body := item.Content
	if body == "" {
		body = item.Description
	}
	c := &content.Content{
		Title:           strings.TrimSpace(item.Title),
		Body:            strings.TrimSpace(stripTags(body)),
		MetaDescription: strings.TrimSpace(stripTags(item.Description)),
	}
	if item.Link != "" {
		c.OutboundLinks = append(c.OutboundLinks, content.Link{URL: item.Link, Anchor: c.Title})
	}
	return c
}

// stripTags removes HTML markup from feed bodies. Feed items often carry
// escaped fragments rather than full documents.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func (im *Importer) get(pageURL string) (string, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "seopass/1.0 (content importer)")

	resp, err := im.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: %s", pageURL, http.StatusText(resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return string(data), nil
}
