package obsidian

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var markdown = goldmark.New()

// splitFrontmatter separates a leading "---" YAML block from the body.
// Content without a closed block is returned unchanged.
func splitFrontmatter(content []byte) (body, frontmatter []byte) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) < 2 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			return bytes.Join(lines[i+1:], []byte("\n")), bytes.Join(lines[1:i], []byte("\n"))
		}
	}
	return content, nil
}

// parseFrontmatter decodes YAML frontmatter. Malformed YAML yields nil so a
// broken header never hides the note.
func parseFrontmatter(raw []byte) map[string]interface{} {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var fm map[string]interface{}
	if err := yaml.Unmarshal(raw, &fm); err != nil {
		return nil
	}
	return fm
}

// tagsOf reads "tags" as either a YAML list or a comma/space separated
// string. Leading '#' is dropped.
func tagsOf(fm map[string]interface{}) []string {
	var raw []string
	switch v := fm["tags"].(type) {
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	}
	var tags []string
	for _, t := range raw {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type heading struct {
	level int
	text  string
}

// headings lists every heading in document order.
func headings(body []byte) []heading {
	doc := markdown.Parser().Parse(text.NewReader(body))
	var out []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			out = append(out, heading{level: h.Level, text: strings.TrimSpace(inlineText(h, body))})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return b.String()
}

// title picks the frontmatter title, then the first level-1 heading, then
// the fallback.
func title(fm map[string]interface{}, hs []heading, fallback string) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, h := range hs {
		if h.level == 1 && h.text != "" {
			return h.text
		}
	}
	return fallback
}
