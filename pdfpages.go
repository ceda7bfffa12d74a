// Package pdfpages extracts the total page count from a PDF file without
// depending on any external PDF library. It understands classic xref
// tables, PDF 1.5+ cross-reference streams with compressed object streams,
// and falls back through progressively weaker heuristic scans when the
// structured page tree cannot be resolved.
//
// Quick start:
//
//	n, err := pdfpages.Count("report.pdf")
//	if err != nil {
//		// pdfpages.IsPageCountNotFound(err) distinguishes "no count could
//		// be determined" from an I/O or usage error.
//	}
package pdfpages

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	internallog "github.com/benedoc-inc/pdfpages/internal/log"
	"github.com/benedoc-inc/pdfpages/pagetree"
	"github.com/benedoc-inc/pdfpages/scan"
	"github.com/benedoc-inc/pdfpages/types"
	"github.com/benedoc-inc/pdfpages/xref"
)

// Options are the non-semantic tuning knobs this package exposes: a maximum
// /Prev hop count and a maximum inflated-stream size. Neither changes what
// a well-formed document counts to; they only bound the cost of malformed
// or adversarial input.
type Options struct {
	maxPrevHops   int
	maxStreamSize int
}

// Option configures Options.
type Option func(*Options)

// WithMaxPrevHops overrides the default /Prev chain hop limit (10).
func WithMaxPrevHops(n int) Option {
	return func(o *Options) { o.maxPrevHops = n }
}

// WithMaxStreamSize overrides the default cap (10 MiB) on how much
// decompressed stream content the heuristic scanners will accumulate.
func WithMaxStreamSize(n int) Option {
	return func(o *Options) { o.maxStreamSize = n }
}

func resolveOptions(opts []Option) Options {
	o := Options{
		maxPrevHops:   xref.DefaultMaxPrevHops,
		maxStreamSize: scan.MaxInflateBytes,
	}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// SetLogger installs l as the package-level logger used to trace which
// strategy resolved (or failed to resolve) a page count. The default is a
// no-op logger.
func SetLogger(l *zap.Logger) {
	internallog.Set(l)
}

// Count returns the page count of input, which must be a filesystem path
// (string) or an owned byte buffer ([]byte). Any other type fails with
// UnsupportedInputType.
func Count(input interface{}, opts ...Option) (int, error) {
	buf, err := readInput(input)
	if err != nil {
		return 0, err
	}
	return CountBytes(buf, opts...)
}

// CountBytes returns the page count found in buf.
func CountBytes(buf []byte, opts ...Option) (int, error) {
	o := resolveOptions(opts)
	n, err := resolve(buf, o)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// IsPageCountNotFound reports whether err is the sentinel the orchestrator
// returns when every strategy fails to resolve a count, as opposed to an
// I/O or usage error. Callers that need to distinguish "not a PDF page
// count could be determined" from "the input could not be read at all"
// (e.g. the CLI's exit code) should check this instead of inspecting the
// error text.
func IsPageCountNotFound(err error) bool {
	return errors.Is(err, types.ErrPageCountNotFound)
}

// Result is what CountAsync delivers once the count finishes (or fails).
type Result struct {
	Pages int
	Err   error
}

// CountAsync runs Count in a goroutine and delivers the Result on the
// returned channel, which is always sent to exactly once and then closed.
// Cancelling ctx before the goroutine finishes delivers ctx.Err() instead
// of waiting for the (possibly slow, e.g. network-mounted) file read.
func CountAsync(ctx context.Context, input interface{}, opts ...Option) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		n, err := Count(input, opts...)
		out <- Result{Pages: n, Err: err}
		close(out)
	}()

	done := make(chan Result, 1)
	go func() {
		select {
		case r := <-out:
			done <- r
		case <-ctx.Done():
			done <- Result{Err: ctx.Err()}
		}
		close(done)
	}()
	return done
}

func readInput(input interface{}) ([]byte, error) {
	switch v := input.(type) {
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, types.WrapError(types.ErrCodeIO, fmt.Sprintf("reading %q", v), err)
		}
		return data, nil
	case []byte:
		return v, nil
	default:
		return nil, types.NewPDFErrorf(types.ErrCodeUnsupportedInput, "input must be a path (string) or a byte buffer ([]byte), got %T", input)
	}
}

// resolve runs the orchestrator's strategy waterfall over buf and returns
// the first strategy's positive result: structured page-tree traversal,
// then a trusted root /Count, then progressively weaker heuristic scans
// of the raw and inflated bytes.
//
// Accurate traversal and trusted /Count are each expressed as a single
// attempt regardless of which xref kind backs them: a real document's
// /Prev chain only ever has one "newest" xref kind at a time, so resolving
// it once and recording xrefMap.Kind for the log line captures the
// classic-vs-stream distinction without re-parsing the same bytes twice
// under separate labels.
func resolve(buf []byte, o Options) (int, error) {
	logger := internallog.L()
	xrefMap, xrefErr := resolveXref(buf, o)

	// The recursive stream inflation is shared by the /Count guard and the
	// later heuristic strategies, but only paid for once a structured
	// traversal has already failed.
	var inflatedBody []byte
	inflatedReady := false
	inflated := func() []byte {
		if !inflatedReady {
			inflatedBody = scan.InflateAllLimit(buf, o.maxStreamSize)
			inflatedReady = true
		}
		return inflatedBody
	}

	if xrefMap != nil {
		if n, err := pagetree.Count(buf, xrefMap, 0); err == nil && n > 0 {
			logger.Debug("page count resolved via page-tree traversal", zap.String("xrefKind", kindLabel(xrefMap.Kind)), zap.Int("pages", n))
			return n, nil
		} else if err != nil {
			logger.Debug("page-tree traversal failed", zap.Error(errors.Wrap(err, "page-tree traversal")))
		}

		heuristicPages := scan.CountPageObjects(buf) + scan.CountPageObjects(inflated())
		if rootCount, err := pagetree.RootCount(buf, xrefMap); err == nil && rootCount > 0 {
			n := rootCount
			if heuristicPages > n {
				n = heuristicPages
			}
			logger.Debug("page count resolved via trusted /Count", zap.String("xrefKind", kindLabel(xrefMap.Kind)), zap.Int("pages", n))
			return n, nil
		} else if err != nil {
			logger.Debug("root /Count unavailable", zap.Error(errors.Wrap(err, "root count")))
		}
	} else if xrefErr != nil {
		logger.Debug("xref resolution failed", zap.Error(errors.Wrap(xrefErr, "xref resolve")))
	}

	if n, ok := scan.NearestCountNearPages(buf); ok && n > 0 {
		logger.Debug("page count resolved via nearest /Count scan", zap.Int("pages", n))
		return n, nil
	}
	if n, ok := scan.MaxCount(buf); ok && n > 0 {
		logger.Debug("page count resolved via max /Count scan", zap.Int("pages", n))
		return n, nil
	}

	if n, ok := scan.NearestCountNearPages(inflated()); ok && n > 0 {
		logger.Debug("page count resolved via nearest /Count scan in inflated streams", zap.Int("pages", n))
		return n, nil
	}
	if n, ok := scan.MaxCount(inflated()); ok && n > 0 {
		logger.Debug("page count resolved via max /Count scan in inflated streams", zap.Int("pages", n))
		return n, nil
	}

	if n := scan.CountPageObjects(buf) + scan.CountPageObjects(inflated()); n > 0 {
		logger.Debug("page count resolved via page-object counter", zap.Int("pages", n))
		return n, nil
	}

	return 0, types.NewPDFErrorf(types.ErrCodePageCountNotFound, "no strategy produced a page count")
}

func resolveXref(buf []byte, o Options) (*xref.Map, error) {
	startOffset, err := xref.FindStartXRef(buf)
	if err != nil {
		return nil, err
	}
	m, err := xref.Resolve(buf, startOffset, o.maxPrevHops)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func kindLabel(k xref.Kind) string {
	if k == xref.KindStream {
		return "stream"
	}
	return "classic"
}
