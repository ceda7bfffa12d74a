// Package scan implements the heuristic fallbacks used once structured
// cross-reference and page-tree resolution have failed: scanning the raw
// bytes for /Count values and /Type /Page occurrences,
// recursively inflating FlateDecode streams along the way in case the page
// count itself only appears inside compressed content. The scans here
// deliberately ignore object boundaries: by the time they run, the
// document's structure has already proven untrustworthy.
package scan

import (
	"regexp"
	"strconv"

	"github.com/benedoc-inc/pdfpages/internal/inflate"
)

// MaxInflateBytes bounds how much decompressed content the recursive
// stream scan will accumulate, so a maliciously nested set of streams
// cannot exhaust memory.
const MaxInflateBytes = 10 << 20 // 10 MiB

var (
	countPattern     = regexp.MustCompile(`/Count\s+(-?\d+)`)
	pagesTypePattern = regexp.MustCompile(`/Type\s*/Pages\b`)
	pageTypePattern  = regexp.MustCompile(`/Type\s*/Page\b`)
	streamPattern    = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
)

// windowBehind and windowAhead bound the search performed around each
// /Type /Pages match by NearestCountNearPages.
const (
	windowBehind = 1 << 10
	windowAhead  = 50 << 10
)

// NearestCountNearPages looks, for every "/Type /Pages" match in buf, within
// a window around it for the first "/Count N", and returns the maximum N
// found across all such nodes.
func NearestCountNearPages(buf []byte) (int, bool) {
	nodes := pagesTypePattern.FindAllIndex(buf, -1)
	best := -1
	for _, node := range nodes {
		start := node[0] - windowBehind
		if start < 0 {
			start = 0
		}
		end := node[1] + windowAhead
		if end > len(buf) {
			end = len(buf)
		}
		m := countPattern.FindSubmatch(buf[start:end])
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(string(m[1]))
		if err != nil || n < 0 {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// MaxCount returns the largest non-negative /Count value found anywhere in
// buf. Malformed documents sometimes carry stale /Count values on
// intermediate nodes; the true page count is usually the largest one.
func MaxCount(buf []byte) (int, bool) {
	matches := countPattern.FindAllSubmatch(buf, -1)
	best := -1
	for _, m := range matches {
		n, err := strconv.Atoi(string(m[1]))
		if err != nil || n < 0 {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// CountPageObjects counts non-overlapping "/Type /Page" occurrences in buf,
// excluding "/Type /Pages" (the word-boundary anchor in pageTypePattern
// already prevents that match).
func CountPageObjects(buf []byte) int {
	return len(pageTypePattern.FindAll(buf, -1))
}

// InflateAll finds every "stream ... endstream" span in buf, attempts a
// FlateDecode of each, and returns their decoded bodies concatenated
// (recursively scanning decoded bodies for further streams, since a
// producer can nest compressed content), stopping once MaxInflateBytes has
// been produced.
func InflateAll(buf []byte) []byte {
	return InflateAllLimit(buf, MaxInflateBytes)
}

// InflateAllLimit is InflateAll with an explicit byte budget in place of
// the MaxInflateBytes default. Budgets <= 0 fall back to the default.
func InflateAllLimit(buf []byte, budget int) []byte {
	if budget <= 0 {
		budget = MaxInflateBytes
	}
	return inflateAll(buf, budget)
}

func inflateAll(buf []byte, budget int) []byte {
	if budget <= 0 {
		return nil
	}
	matches := streamPattern.FindAllSubmatch(buf, -1)
	var out []byte
	for _, m := range matches {
		if budget <= 0 {
			break
		}
		decoded, err := inflate.Flate(m[1])
		if err != nil {
			continue
		}
		if len(decoded) > budget {
			decoded = decoded[:budget]
		}
		out = append(out, decoded...)
		budget -= len(decoded)

		if budget > 0 {
			nested := inflateAll(decoded, budget)
			out = append(out, nested...)
			budget -= len(nested)
		}
	}
	return out
}
