package history

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Typographer),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown renders a generation as a short markdown document: the heading,
// then one list item per bar.
func Markdown(g *Generation) string {
	var b strings.Builder
	persona := g.Persona
	if persona == "" {
		persona = "the AI"
	}
	fmt.Fprintf(&b, "# Yo listen, it's %s off the top Freestyle!\n\n", persona)
	if g.Topic != "" {
		fmt.Fprintf(&b, "_Topic: %s_\n\n", escapeMarkdown(g.Topic))
	}
	if len(g.Bars) == 0 {
		b.WriteString("No bars survived the cut.\n")
		return b.String()
	}
	for _, bar := range g.Bars {
		fmt.Fprintf(&b, "- %s\n", escapeMarkdown(strings.TrimSpace(bar)))
	}
	return b.String()
}

// HTML renders the markdown export of g to an HTML fragment.
func HTML(g *Generation) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(g)), &buf); err != nil {
		return "", fmt.Errorf("rendering generation %s: %w", g.ID, err)
	}
	return buf.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
