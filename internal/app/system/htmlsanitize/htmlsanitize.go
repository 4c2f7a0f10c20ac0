// Package htmlsanitize strips markup from user-supplied catalog text.
// It uses bluemonday so that tags, scripts and comments are removed the
// same way everywhere text enters the store.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared bluemonday policy; it allows no elements at all.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Strip removes every HTML element from s and returns the remaining text,
// trimmed. Entities are decoded afterwards so plain text such as
// "Tom & Jerry" round-trips unchanged; values are served as JSON, never
// spliced into markup.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}

// IsPlainText checks if content appears to be plain text (no HTML tags).
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	// Valid HTML tags require both characters, so if either is missing, treat as plain text
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}
