// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings,
// plus truncation and collision handling for the posts and terms collections.
package slug

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// MaxLength is the longest slug the posts and terms tables accept.
const MaxLength = 200

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2019" → "hello-world-2019"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Truncate shortens a slug to at most length characters. A trailing digit is
// dropped first: that position is reserved for collision suffixes. Percent-
// encoded slugs are decoded before cutting so multi-byte sequences are not
// split, then re-encoded. Trailing hyphens are stripped.
func Truncate(s string, length int) string {
	if s == "" {
		return s
	}
	if last := s[len(s)-1]; last >= '0' && last <= '9' {
		s = s[:len(s)-1]
	}
	if len(s) > length {
		decoded, err := url.QueryUnescape(s)
		if err != nil || decoded == s {
			s = s[:length]
		} else {
			s = encodeClipped(decoded, length)
		}
	}
	return strings.TrimRight(s, "-")
}

// encodeClipped percent-encodes non-ASCII runes, keeping the encoded result
// within limit bytes without splitting a rune's escape sequence.
func encodeClipped(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		enc := string(r)
		if r > 0x7f {
			enc = url.QueryEscape(enc)
		}
		if b.Len()+len(enc) > limit {
			break
		}
		b.WriteString(enc)
	}
	return b.String()
}

// Lookup fetches every existing slug in a collection that begins with the
// given prefix, excluding the record with excludeID (0 means no exclusion).
// Implemented by the post and term stores.
type Lookup interface {
	SlugsLike(prefix string, excludeID int64) ([]string, error)
}

// Unique returns a slug unique within the collection behind the lookup, as of
// the lookup snapshot. If any existing slug shares the candidate's prefix, a
// numeric suffix is appended, counting up until a free value is found. The
// check-then-write sequence is not race-free; the storage layer's unique
// index is the backstop.
func Unique(candidate string, excludeID int64, lookup Lookup) (string, error) {
	existing, err := lookup.SlugsLike(candidate, excludeID)
	if err != nil {
		return "", fmt.Errorf("slug lookup: %w", err)
	}
	if len(existing) == 0 {
		return candidate, nil
	}

	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s] = true
	}

	base := Truncate(candidate, MaxLength)
	for suffix := 1; ; suffix++ {
		alt := base + "-" + strconv.Itoa(suffix)
		if !taken[alt] {
			return alt, nil
		}
	}
}
