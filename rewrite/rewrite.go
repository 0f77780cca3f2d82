// Package rewrite replaces references to original asset paths with their
// revisioned names, as recorded in a manifest.
package rewrite

import (
	"sort"
	"strings"

	"github.com/thatguystone/revreplace/manifest"
)

// A SourceFile is a text file to scan for references
type SourceFile struct {
	Path    string // Slash-separated, relative to the output dir
	Content string
}

// A Result is a SourceFile after all references were replaced
type Result struct {
	Path     string // Same as the SourceFile's: files are rewritten in place
	Content  string
	Replaced int // Number of references replaced
}

// Changed reports if any reference was replaced
func (res Result) Changed() bool {
	return res.Replaced > 0
}

// A Rewriter replaces manifest paths in text. It is safe for concurrent use.
type Rewriter struct {
	m    manifest.Manifest
	keys []string
}

type match struct {
	start int
	end   int
	key   string
}

// New creates a Rewriter for the given manifest
func New(m manifest.Manifest) *Rewriter {
	return &Rewriter{
		m:    m,
		keys: m.Keys(),
	}
}

// Rewrite replaces every reference to a manifest key in text with the key's
// revisioned path, returning the new text and how many references were
// replaced.
func Rewrite(m manifest.Manifest, text string) (string, int) {
	return New(m).Rewrite(text)
}

// Rewrite replaces every reference to a manifest key in text with the key's
// revisioned path.
//
// A reference only matches as a complete path token: "app.js" matches in
// `src="/js/app.js?v=1"` but not in "app.json", "legacy-app.js", or
// "app.js.map". All matches are found against the original text, so a
// replacement is never itself rewritten. When matches overlap, the leftmost
// wins, then the longest.
func (rw *Rewriter) Rewrite(text string) (string, int) {
	var matches []match

	for _, key := range rw.keys {
		off := 0
		for {
			i := strings.Index(text[off:], key)
			if i == -1 {
				break
			}

			start := off + i
			end := start + len(key)
			if tokenStart(text, start) && tokenEnd(text, end) {
				matches = append(matches, match{
					start: start,
					end:   end,
					key:   key,
				})
			}

			off = start + 1
		}
	}

	if len(matches) == 0 {
		return text, 0
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}

		return matches[i].end > matches[j].end
	})

	var b strings.Builder
	b.Grow(len(text))

	n := 0
	last := 0
	for _, m := range matches {
		if m.start < last {
			continue
		}

		b.WriteString(text[last:m.start])
		b.WriteString(rw.m[m.key])
		last = m.end
		n++
	}

	b.WriteString(text[last:])

	return b.String(), n
}

// RewriteFile rewrites the content of a single file
func (rw *Rewriter) RewriteFile(sf SourceFile) Result {
	content, n := rw.Rewrite(sf.Content)
	return Result{
		Path:     sf.Path,
		Content:  content,
		Replaced: n,
	}
}

func tokenStart(text string, i int) bool {
	return i == 0 || !isNameByte(text[i-1])
}

func tokenEnd(text string, i int) bool {
	if i == len(text) {
		return true
	}

	c := text[i]
	return c != '/' && !isNameByte(c)
}

// isNameByte checks if c can continue a file name. Anything non-ASCII is
// assumed to be part of a name.
func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z',
		c >= 'A' && c <= 'Z',
		c >= '0' && c <= '9',
		c >= 0x80:
		return true
	}

	switch c {
	case '_', '-', '.', '~', '@', '+':
		return true
	}

	return false
}
