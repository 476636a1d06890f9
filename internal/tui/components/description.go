package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	rendererCache sync.Map // map[int]*glamour.TermRenderer
)

// getRenderer returns a cached markdown renderer for the given wrap width.
// Renderers are expensive to build, and detail views reopen constantly.
func getRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	rendererCache.Store(width, renderer)
	return renderer, nil
}

// RenderMarkdown renders a deal description as terminal markdown,
// wrapped to the given width. Falls back to the raw text when the
// renderer cannot be built.
func RenderMarkdown(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return EmptyStyle.Render("No description")
	}

	renderer, err := getRenderer(width)
	if err != nil {
		return text
	}

	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
