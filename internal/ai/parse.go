package ai

import (
	"encoding/json"
	"strings"
)

// ParseList recovers a string list from a model completion. Models are asked
// for a JSON array but routinely wrap it in prose or a code fence, or answer
// with bullets instead. The ladder tries the strictest reading first:
//
//	1. the whole completion as a JSON array of strings
//	2. the contents of the first fenced code block as a JSON array
//	3. non-empty lines with bullet and number prefixes stripped
//
// Blank entries are dropped at every rung. An unusable completion parses to
// an empty list, never an error; the caller decides whether that is worth
// reporting.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if items, ok := parseJSONList(raw); ok {
		return items
	}
	if block, ok := fencedBlock(raw); ok {
		if items, ok := parseJSONList(block); ok {
			return items
		}
	}
	return parseLines(raw)
}

// ParseText recovers a single text value from a completion: the first fenced
// block if one exists, otherwise the whole completion, unquoted and trimmed.
func ParseText(raw string) string {
	raw = strings.TrimSpace(raw)
	if block, ok := fencedBlock(raw); ok {
		raw = strings.TrimSpace(block)
	}
	// Models sometimes return a bare JSON string.
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return strings.TrimSpace(s)
	}
	return raw
}

func parseJSONList(raw string) ([]string, bool) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	out := []string{}
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, true
}

// fencedBlock returns the contents of the first ``` fence, with an optional
// language tag on the opening line.
func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		if firstLine := strings.TrimSpace(rest[:nl]); firstLine == "" || isFenceTag(firstLine) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func parseLines(raw string) []string {
	out := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = stripBullet(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// stripBullet removes a leading list marker: "-", "*", "•" or "3." / "3)".
func stripBullet(line string) string {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
