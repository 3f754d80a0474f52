// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"fmt"
	"html"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bureau-foundation/termdrift/lib/drift"
)

var (
	markdownRendererInstance goldmark.Markdown
	markdownRendererOnce     sync.Once
)

func getMarkdownRenderer() goldmark.Markdown {
	markdownRendererOnce.Do(func() {
		markdownRendererInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownRendererInstance
}

// HTML renders the Markdown report as a standalone HTML page. Tables in
// the report need the GFM extension.
func HTML(summary drift.Summary) ([]byte, error) {
	var body bytes.Buffer
	if err := getMarkdownRenderer().Convert([]byte(Markdown(summary)), &body); err != nil {
		return nil, fmt.Errorf("rendering summary HTML: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>Terminal Drift Summary: %s</title>\n", html.EscapeString(drift.PollutionLabel(summary.Suspected)))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
