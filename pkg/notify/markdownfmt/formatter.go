// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package markdownfmt converts markdown notification text to Matrix HTML.
package markdownfmt

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"maunium.net/go/mautrix/event"
)

// Message holds a notification body in the Matrix dual-format message
// convention: Body always carries the plain rendered text, and when the
// text contains markup, FormattedBody carries the HTML fragment tagged
// with the org.matrix.custom.html format.
type Message struct {
	Body          string
	Format        event.Format
	FormattedBody string
}

var renderer = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Table,
		extension.Linkify,
	),
)

// escapePlain escapes text the way goldmark's HTML renderer does, so the
// no-markup comparison below is exact. Unlike html.EscapeString, goldmark
// emits &quot; for double quotes and leaves single quotes alone.
var escapePlain = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Parse converts markdown text to a Matrix message. The original text is
// always retained as the plain body. When the markdown renders to nothing
// more than the input itself, no formatted body is attached and the
// message is sent plain.
func Parse(text string) *Message {
	if text == "" {
		return &Message{}
	}

	var buf bytes.Buffer
	if err := renderer.Convert([]byte(text), &buf); err != nil {
		// goldmark's HTML renderer writes to an in-memory buffer and
		// cannot fail in practice; degrade to a plain message anyway.
		return &Message{Body: text}
	}

	formatted := strings.TrimRight(buf.String(), "\n")
	formatted = unwrapSingleParagraph(formatted)
	// No markup: the fragment is just the plain text, possibly with
	// HTML-special characters escaped. Send plain in that case.
	if formatted == text || formatted == escapePlain.Replace(text) {
		return &Message{Body: text}
	}

	return &Message{
		Body:          text,
		Format:        event.FormatHTML,
		FormattedBody: formatted,
	}
}

// unwrapSingleParagraph strips the outer <p> tags from a fragment that
// contains exactly one paragraph, so short notifications don't arrive
// wrapped in block markup.
func unwrapSingleParagraph(fragment string) string {
	inner, ok := strings.CutPrefix(fragment, "<p>")
	if !ok {
		return fragment
	}
	inner, ok = strings.CutSuffix(inner, "</p>")
	if !ok || strings.Contains(inner, "<p>") || strings.Contains(inner, "</p>") {
		return fragment
	}
	return inner
}
