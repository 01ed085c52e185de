// Package xmlutil escapes text embedded in XML-delimited prompts.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// Escape replaces the characters with special meaning in XML so that grid
// identifiers cannot close or open prompt sections. Line breaks are kept.
func Escape(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		var b strings.Builder
		if err := xml.EscapeText(&b, []byte(line)); err != nil {
			// Only invalid UTF-8 fails here.
			return s
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// Element wraps the escaped content in <name>...</name>, each tag on its own
// line. name is trusted and not escaped.
func Element(name, content string) string {
	var b strings.Builder
	b.Grow(len(content) + 2*len(name) + 8)
	b.WriteString("<" + name + ">\n")
	b.WriteString(Escape(content))
	if !strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("</" + name + ">")
	return b.String()
}
