// Package selector isolates HTML querying behind a small interface so the
// extraction logic never depends on a concrete markup parser.
package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Engine answers class/id/tag selector queries against raw markup.
// Comma-separated selectors are alternatives tried left to right.
type Engine interface {
	// FindFirst returns the text of the first element matching sel.
	FindFirst(html, sel string) (string, bool)
	// FindAll returns the text of every element matching sel.
	FindAll(html, sel string) []string
	// FindAttrs returns the given attribute of every element matching sel.
	FindAttrs(html, sel, attr string) []string
}

// GoqueryEngine implements Engine on a real DOM parse. Malformed markup is
// tolerated: goquery repairs what it can and queries simply miss otherwise.
type GoqueryEngine struct{}

// NewGoqueryEngine returns the default engine.
func NewGoqueryEngine() *GoqueryEngine {
	return &GoqueryEngine{}
}

// FindFirst implements Engine.
func (e *GoqueryEngine) FindFirst(html, sel string) (string, bool) {
	doc, err := parse(html)
	if err != nil {
		return "", false
	}
	for _, alt := range alternatives(sel) {
		node := doc.Find(alt).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text, true
		}
	}
	return "", false
}

// FindAll implements Engine.
func (e *GoqueryEngine) FindAll(html, sel string) []string {
	doc, err := parse(html)
	if err != nil {
		return nil
	}
	var out []string
	for _, alt := range alternatives(sel) {
		doc.Find(alt).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			break
		}
	}
	return out
}

// FindAttrs implements Engine.
func (e *GoqueryEngine) FindAttrs(html, sel, attr string) []string {
	doc, err := parse(html)
	if err != nil {
		return nil
	}
	var out []string
	for _, alt := range alternatives(sel) {
		doc.Find(alt).Each(func(_ int, s *goquery.Selection) {
			if value, ok := s.Attr(attr); ok && strings.TrimSpace(value) != "" {
				out = append(out, strings.TrimSpace(value))
			}
		})
		if len(out) > 0 {
			break
		}
	}
	return out
}

func parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func alternatives(sel string) []string {
	parts := strings.Split(sel, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
