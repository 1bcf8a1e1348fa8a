// Package extract turns listing-site HTML into structured records by walking
// ordered selector chains. Missing markup yields empty fields, never errors.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector names one place a field may live.
type Selector struct {
	CSS string
	// Attr reads an attribute instead of element text.
	Attr string
	// All joins the text of every match instead of reading only the first.
	All bool
}

// Chain is an ordered list of selectors; the first one yielding a non-empty
// value wins.
type Chain []Selector

// Resolve returns the first non-empty trimmed value the chain finds in scope.
func (c Chain) Resolve(scope *goquery.Selection) (string, bool) {
	if scope == nil {
		return "", false
	}
	for _, sel := range c {
		if v := sel.value(scope); v != "" {
			return v, true
		}
	}
	return "", false
}

// String resolves the chain and discards the found flag.
func (c Chain) String(scope *goquery.Selection) string {
	v, _ := c.Resolve(scope)
	return v
}

// ResolveAll returns the trimmed, non-empty texts of every element matched by
// the first selector that matches anything useful.
func (c Chain) ResolveAll(scope *goquery.Selection) []string {
	out := []string{}
	if scope == nil {
		return out
	}
	for _, sel := range c {
		scope.Find(sel.CSS).Each(func(_ int, s *goquery.Selection) {
			if v := sel.read(s); v != "" {
				out = append(out, v)
			}
		})
		if len(out) > 0 {
			return out
		}
	}
	return out
}

// Scopes returns the elements matched by the first selector that matches any.
func (c Chain) Scopes(scope *goquery.Selection) *goquery.Selection {
	if scope == nil {
		return nil
	}
	for _, sel := range c {
		if found := scope.Find(sel.CSS); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func (s Selector) value(scope *goquery.Selection) string {
	found := scope.Find(s.CSS)
	if found.Length() == 0 {
		return ""
	}
	if s.All && s.Attr == "" {
		return strings.TrimSpace(found.Text())
	}
	return s.read(found.First())
}

func (s Selector) read(el *goquery.Selection) string {
	if s.Attr == "" {
		return strings.TrimSpace(el.Text())
	}
	v, ok := el.Attr(s.Attr)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func parse(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
