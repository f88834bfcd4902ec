// Package llmjson decodes JSON documents returned by language models, which
// often arrive wrapped in Markdown code fences or surrounded by prose.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when the reply contains no JSON object.
var ErrNoObject = errors.New("no JSON object in model reply")

// StripCodeFence removes a surrounding ```json or ``` fence and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json", "JSON", ...) up to the first newline.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if info := strings.TrimSpace(s[:nl]); !strings.ContainsAny(info, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Unmarshal strips fences from reply and decodes the JSON object it holds
// into v. Text before the first '{' or after the last '}' is ignored.
func Unmarshal(reply string, v any) error {
	body := StripCodeFence(reply)

	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return ErrNoObject
	}

	if err := json.Unmarshal([]byte(body[start:end+1]), v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
