// Package json provides JSON extraction utilities for parsing LLM responses.
//
// LLMs often return JSON embedded in text, wrapped in markdown fences, or
// with small syntax slips (trailing commas, comments). This package recovers
// the JSON object from such responses.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON finds and returns the JSON portion of a response string.
// Strategies, in order:
// 1. Pure JSON response (after stripping markdown fences)
// 2. Same, after removing comments and trailing commas
// 3. First balanced {...} object embedded in text
// 4. First '{' to last '}' (with and without cleanup)
//
// Only JSON objects are recovered, not top-level arrays.
func extractJSON(response string) (string, error) {
	response = stripMarkdownCodeBlocks(response)

	candidates := []string{response}
	if obj, ok := balancedObject(response); ok {
		candidates = append(candidates, obj)
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		candidates = append(candidates, response[start:end+1])
	}

	for _, c := range candidates {
		if valid(c) {
			return c, nil
		}
		if cleaned := cleanupJSON(c); valid(cleaned) {
			return cleaned, nil
		}
	}

	// Create a preview for the error message
	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview)
}

func valid(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var test interface{}
	return json.Unmarshal([]byte(s), &test) == nil
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles a fenced block at the start of the response as well as the first
// fenced block embedded in surrounding prose.
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if !strings.HasPrefix(trimmed, "```") {
		open := strings.Index(trimmed, "```")
		if open == -1 {
			return trimmed
		}
		trimmed = trimmed[open:]
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop the info string (json, JSON, javascript, ...)
	if nl := strings.IndexByte(trimmed, '\n'); nl != -1 && !strings.ContainsAny(trimmed[:nl], "{[") {
		trimmed = trimmed[nl+1:]
	}
	if close := strings.Index(trimmed, "```"); close != -1 {
		trimmed = trimmed[:close]
	}
	return strings.TrimSpace(trimmed)
}

// balancedObject returns the first complete {...} object in s, honouring
// string literals so braces inside strings are not counted.
func balancedObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// cleanupJSON removes // and /* */ comments and trailing commas outside of
// string literals.
func cleanupJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch {
		case ch == '"':
			inString = true
			b.WriteByte(ch)
		case ch == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case ch == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			i++
		case ch == ',':
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) != -1 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// ExtractJSONFromResponse extracts and parses JSON from an LLM response.
// Returns the parsed value or an error if extraction fails.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// ExtractJSON extracts the JSON portion from a response string.
// Returns the raw JSON string suitable for further processing.
func ExtractJSON(response string) (string, error) {
	return extractJSON(response)
}
