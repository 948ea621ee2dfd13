// Package mdutil extracts structural features from markdown bodies using
// the goldmark AST: headings, inline images, links, and a plain-text
// rendering for the text metrics.
package mdutil

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// Heading is a markdown heading with its level.
type Heading struct {
	Level int
	Text  string
}

// Image is an inline markdown image.
type Image struct {
	Destination string
	Alt         string
}

// Outline summarizes the structure of a markdown document. The structure
// preserver compares outlines before and after a correction.
type Outline struct {
	Headings       []Heading
	ImageCount     int
	LinkCount      int
	CodeBlockCount int
	ListCount      int
	WordEstimate   int
}

// Headings returns all headings of a markdown document in order.
func Headings(source string) []Heading {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var headings []Heading
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			headings = append(headings, Heading{
				Level: h.Level,
				Text:  string(h.Text(src)),
			})
		}
		return ast.WalkContinue, nil
	})
	return headings
}

// Images returns all inline images of a markdown document.
func Images(source string) []Image {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var images []Image
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			images = append(images, Image{
				Destination: string(img.Destination),
				Alt:         string(img.Text(src)),
			})
		}
		return ast.WalkContinue, nil
	})
	return images
}

// ExtractOutline walks the document once and collects every structural
// feature the preserver checks.
func ExtractOutline(source string) Outline {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var o Outline
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			o.Headings = append(o.Headings, Heading{Level: v.Level, Text: string(v.Text(src))})
		case *ast.Image:
			o.ImageCount++
		case *ast.Link:
			o.LinkCount++
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			o.CodeBlockCount++
		case *ast.List:
			o.ListCount++
		}
		return ast.WalkContinue, nil
	})
	o.WordEstimate = len(strings.Fields(source))
	return o
}

// PlainText strips markdown markup, returning the readable prose. Heading
// lines are kept; code blocks, link targets and image syntax are dropped.
func PlainText(source string) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading:
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
