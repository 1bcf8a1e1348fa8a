package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentTypeText is the only content part type tools emit.
const ContentTypeText = "text"

// Content is one part of a result envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the uniform success envelope shared by every tool.
type Result struct {
	Content []Content `json:"content"`
}

// TextResult serializes payload as indented JSON without HTML escaping and
// wraps it in a single text part.
func TextResult(payload any) (Result, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}
	return Result{Content: []Content{{
		Type: ContentTypeText,
		Text: strings.TrimSuffix(buf.String(), "\n"),
	}}}, nil
}

// Text returns the first text part, or "" when there is none.
func (r Result) Text() string {
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			return c.Text
		}
	}
	return ""
}
