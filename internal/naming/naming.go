// Package naming turns arbitrary text into file and directory names that are
// safe on every common file system.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// Untitled is returned whenever nothing usable survives sanitisation.
	Untitled = "未命名"
	// Placeholder replaces every illegal character.
	Placeholder = '_'
	// MaxLen is the maximum length of a sanitised name in bytes.
	MaxLen = 255
)

// Sanitize returns a deterministic, non-empty, file-system-safe version of name.
// Sanitize(Sanitize(x)) == Sanitize(x) for every x.
func Sanitize(name string) string {
	s := strings.TrimSpace(norm.NFC.String(name))
	if s == "" {
		return Untitled
	}

	var b strings.Builder
	b.Grow(len(s))
	lastPlaceholder := false
	for _, r := range s {
		if isIllegal(r) {
			r = Placeholder
		}
		if r == Placeholder {
			if lastPlaceholder {
				continue
			}
			lastPlaceholder = true
		} else {
			lastPlaceholder = false
		}
		b.WriteRune(r)
	}

	s = trimEdges(b.String())
	if len(s) > MaxLen {
		s = trimEdges(truncate(s, MaxLen))
	}
	if s == "" || strings.Trim(s, ".") == "" {
		return Untitled
	}
	return s
}

// FileName sanitises base and appends ext, keeping the whole name within MaxLen bytes.
func FileName(base, ext string) string {
	s := Sanitize(base)
	if len(s)+len(ext) > MaxLen {
		s = trimEdges(truncate(s, MaxLen-len(ext)))
		if s == "" {
			s = Untitled
		}
	}
	return s + ext
}

// SingleLine collapses every run of whitespace and control characters in s
// to one space and trims the ends, so s fits on one markdown line.
func SingleLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	gap := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			gap = b.Len() > 0
			continue
		}
		if gap {
			b.WriteByte(' ')
			gap = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isIllegal(r rune) bool {
	switch r {
	case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
		return true
	}
	return unicode.IsControl(r)
}

func trimEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == Placeholder || unicode.IsSpace(r)
	})
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
