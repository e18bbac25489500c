package wikihistory

import (
	"strings"
)

// The dump has one element per line, so all matching happens on a
// single line with leading whitespace stripped.

func hasTag(line, prefix string) bool {
	line = strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(line, prefix) {
		return false
	}
	if len(line) == len(prefix) {
		return true
	}
	switch line[len(prefix)] {
	case '>', '/', ' ', '\t':
		return true
	}
	return false
}

func isOpeningTag(line, name string) bool {
	return hasTag(line, "<"+name)
}

func isClosingTag(line, name string) bool {
	return hasTag(line, "</"+name)
}

func requireOpeningTag(lr *LineReader, line, name string) error {
	if !isOpeningTag(line, name) {
		return malformed(lr, "<"+name+">", line)
	}
	return nil
}

func requireClosingTag(lr *LineReader, line, name string) error {
	if !isClosingTag(line, name) {
		return malformed(lr, "</"+name+">", line)
	}
	return nil
}

// isSelfClosing is true when the element's opening tag ends in />,
// e.g. <sha1 /> or <text bytes="0" />.
func isSelfClosing(line string) bool {
	i := strings.IndexByte(line, '>')
	return i > 0 && line[i-1] == '/'
}

// isDeleted is true for elements carrying the redaction marker.
func isDeleted(line string) bool {
	return strings.Contains(line, `deleted="deleted"`)
}

// attrValue extracts attr="value" from an opening tag.
func attrValue(line, attr string) (string, bool) {
	key := attr + `="`
	i := strings.Index(line, key)
	if i < 0 {
		return "", false
	}
	rest := line[i+len(key):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// extractValue pulls value out of a line of exactly <name>value</name>.
func extractValue(lr *LineReader, line, name string) (string, error) {
	open, close := "<"+name+">", "</"+name+">"
	s := strings.TrimSpace(line)
	if len(s) < len(open)+len(close) ||
		!strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", malformed(lr, open+"..."+close, line)
	}
	return s[len(open) : len(s)-len(close)], nil
}

// extractInline is extractValue for single-line elements that may
// carry attributes, e.g. <namespace key="1">Talk</namespace>.
func extractInline(lr *LineReader, line, name string) (string, error) {
	close := "</" + name + ">"
	s := strings.TrimSpace(line)
	start := strings.IndexByte(s, '>') + 1
	if start == 0 || !strings.HasSuffix(s, close) || len(s)-len(close) < start {
		return "", malformed(lr, "<"+name+">..."+close, line)
	}
	return s[start : len(s)-len(close)], nil
}

// extractMultiline pulls the value of an element that may span
// several lines, starting at first.  Lines are joined with \n; the
// closing fragment gets no trailing newline.  Self-closing elements
// yield "".
func extractMultiline(lr *LineReader, first, name string) (string, error) {
	if err := requireOpeningTag(lr, first, name); err != nil {
		return "", err
	}
	if isSelfClosing(first) {
		return "", nil
	}

	close := "</" + name + ">"
	start := strings.IndexByte(first, '>') + 1
	if s := strings.TrimRight(first, " \t"); strings.HasSuffix(s, close) &&
		len(s)-len(close) >= start {
		return s[start : len(s)-len(close)], nil
	}

	var b strings.Builder
	b.WriteString(first[start:])
	b.WriteByte('\n')
	for {
		line, err := lr.Next()
		if err != nil {
			return "", eofAs(lr, err, close)
		}
		if t := strings.TrimRight(line, " \t"); strings.HasSuffix(t, close) {
			b.WriteString(t[:len(t)-len(close)])
			return b.String(), nil
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// The dump escapes element content and attributes with these and
// nothing else.
var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
	"&apos;", "'",
	"&amp;", "&",
)

func unescapeXML(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return xmlUnescaper.Replace(s)
}
