// Package tagscan incrementally detects <package>NAME</package> tags in a
// text stream that arrives in arbitrary chunks.
//
// The scanner keeps a bounded trailing window of the stream so a tag split
// across chunk boundaries is still found once its closing delimiter arrives,
// while memory stays constant regardless of total stream length:
//
//	chunk ──▶ buffer+chunk ──▶ scan ──▶ new names
//	                              │
//	                              ▼
//	                      keep trailing window
//
// Names are deduplicated for the lifetime of a Scanner, so overlapping
// windows never report the same package twice.
package tagscan

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultWindow is the number of trailing characters retained between scans.
// It must be at least as large as the longest tag expected to straddle a
// chunk boundary.
const DefaultWindow = 500

var packageTag = regexp.MustCompile(`<package>([^<]+)</package>`)

// Scanner is a stateful, single-request package tag detector.
// It is not safe for concurrent use.
type Scanner struct {
	buffer string
	window int
	seen   *Set
}

// Option configures a Scanner created with New.
type Option func(*Scanner)

// WithWindow overrides the retained window size. Values <= 0 disable
// truncation entirely.
func WithWindow(n int) Option {
	return func(s *Scanner) {
		s.window = n
	}
}

// New creates a Scanner with an empty buffer and an empty package set.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		window: DefaultWindow,
		seen:   NewSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe feeds the next chunk to the scanner and returns the package names
// discovered for the first time by this call, in encounter order.
func (s *Scanner) Observe(chunk string) []string {
	var found []string
	s.buffer, found = Scan(s.buffer, chunk, s.seen, s.window)
	return found
}

// Packages returns every distinct package name seen so far, in discovery order.
func (s *Scanner) Packages() []string {
	return s.seen.Names()
}

// Buffer returns the currently retained suffix of the stream.
func (s *Scanner) Buffer() string {
	return s.buffer
}

// Scan appends chunk to buffer, reports names not already in seen, and
// returns the buffer truncated to its trailing window. Truncation always
// happens after the scan so a tag that completes in this chunk is never lost.
func Scan(buffer, chunk string, seen *Set, window int) (string, []string) {
	buffer += chunk

	var found []string
	for _, m := range packageTag.FindAllStringSubmatch(buffer, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if seen.Add(name) {
			found = append(found, name)
		}
	}

	return truncate(buffer, window), found
}

// FindAll returns the distinct package names in a complete text.
func FindAll(text string) []string {
	_, found := Scan("", text, NewSet(), 0)
	return found
}

// truncate keeps the last window characters of buffer. The window counts
// runes so multi-byte text keeps as much context as ASCII.
func truncate(buffer string, window int) string {
	if window <= 0 || len(buffer) <= window {
		return buffer
	}

	cut := len(buffer)
	for n := 0; n < window && cut > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(buffer[:cut])
		cut -= size
	}
	return buffer[cut:]
}
