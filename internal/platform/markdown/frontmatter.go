package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Decode splits a note into its YAML header and body. The header is decoded
// into meta (a pointer to a struct or map). found is false for notes without
// a header; meta is left untouched and body is the whole content.
func Decode(content string, meta any) (body string, found bool, err error) {
	first, rest, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimRight(first, "\r") != fence {
		return content, false, nil
	}
	header, body, ok := cutFence(rest)
	if !ok {
		return "", false, fmt.Errorf("frontmatter is not closed")
	}
	if meta != nil {
		if err := yaml.Unmarshal([]byte(header), meta); err != nil {
			return "", false, fmt.Errorf("decode frontmatter: %w", err)
		}
	}
	return body, true, nil
}

// cutFence finds the closing fence line and returns what precedes and follows it.
func cutFence(s string) (header, body string, ok bool) {
	offset := 0
	for offset <= len(s) {
		line, next, more := strings.Cut(s[offset:], "\n")
		if strings.TrimRight(line, "\r") == fence {
			return s[:offset], next, true
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}
	return "", "", false
}

// Encode renders meta as a YAML header followed by body, separated by one blank line.
func Encode(meta any, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	buf.WriteString(fence + "\n")
	if !strings.HasPrefix(body, "\n") {
		buf.WriteByte('\n')
	}
	buf.WriteString(body)
	return buf.String(), nil
}
