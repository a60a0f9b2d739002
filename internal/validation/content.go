package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ValidateLength checks that s holds between min and max characters (runes).
func ValidateLength(field, s string, min, max int) error {
	n := utf8.RuneCountInString(s)
	if n < min {
		if min == 1 {
			return fmt.Errorf("%s is required", field)
		}
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	if n > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}

// ValidateURI accepts absolute http(s) URLs and rooted paths such as
// /uploads/abc.webp returned by the upload endpoint.
func ValidateURI(raw string) error {
	if strings.TrimSpace(raw) != raw || raw == "" {
		return fmt.Errorf("invalid URI %q", raw)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid URI %q", raw)
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("URI %q must use http or https", raw)
		}
		if u.Host == "" {
			return fmt.Errorf("URI %q has no host", raw)
		}
	}
	return nil
}

// NormalizeHashtags trims tags, strips a leading '#', drops empties and
// removes case-insensitive duplicates while keeping first-seen order.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
