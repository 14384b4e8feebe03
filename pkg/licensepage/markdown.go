package licensepage

import (
	"strings"
)

// markdownSpecial holds the characters EscapeMarkdown backslash-escapes.
const markdownSpecial = "\\`*_[]<>#|~"

// EscapeMarkdown escapes characters that Markdown would read as structure.
// A code span (text between a pair of single backticks) is copied as is,
// since backslashes inside it are literal.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '`' {
			if end := strings.IndexByte(s[i+1:], '`'); end > 0 {
				b.WriteString(s[i : i+end+2])
				i += end + 1
				continue
			}
		}
		if strings.IndexByte(markdownSpecial, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// splitLines splits text into lines without terminators. A trailing newline
// does not produce an empty final line and "\r\n" endings are accepted.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// fence returns a backtick fence longer than any backtick run in body.
func fence(body string) string {
	longest, run := 0, 0
	for i := 0; i < len(body); i++ {
		if body[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

// quoteLine renders one body line of a block quote. Empty lines carry only
// the marker so the quote stays contiguous.
func quoteLine(line string) string {
	if line == "" {
		return ">"
	}
	return "> " + line
}
