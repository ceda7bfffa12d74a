// Command pdfpages is a thin CLI front end over the pdfpages engine: it is
// not part of the core page-count logic, only a consumer of its public API.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benedoc-inc/pdfpages"
)

// Exit codes: 0 success, 1 usage/IO failure, 2 page-count resolution failure.
const (
	exitOK        = 0
	exitIOFailure = 1
	exitNoCount   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	exitCode := exitOK

	var (
		async       bool
		dir         bool
		verbose     bool
		maxHops     int
		maxInflated int
	)

	root := &cobra.Command{
		Use:           "pdfpages",
		Short:         "Resolve PDF page counts without an external PDF library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	countCmd := &cobra.Command{
		Use:   "count <path>",
		Short: "Print the page count of one file, or every *.pdf file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			if verbose {
				pdfpages.SetLogger(mustDevelopmentLogger())
			}
			opts := buildOptions(maxHops, maxInflated)

			target := cmdArgs[0]
			if dir {
				code, err := runDir(cmd.Context(), target, opts, async)
				exitCode = code
				return err
			}
			code, err := runFile(cmd.Context(), target, opts, async)
			exitCode = code
			return err
		},
	}
	countCmd.Flags().BoolVar(&async, "async", false, "resolve the page count through the async API")
	countCmd.Flags().BoolVar(&dir, "dir", false, "treat <path> as a directory and count every *.pdf file under it")
	countCmd.Flags().BoolVar(&verbose, "verbose", false, "log which strategy resolved (or failed to resolve) each count")
	countCmd.Flags().IntVar(&maxHops, "max-prev-hops", 0, "override the default /Prev chain hop limit (0 keeps the default)")
	countCmd.Flags().IntVar(&maxInflated, "max-inflate-bytes", 0, "override the default inflated-stream size cap (0 keeps the default)")

	root.AddCommand(countCmd)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pdfpages:", err)
		if exitCode == exitOK {
			exitCode = exitIOFailure
		}
	}
	return exitCode
}

func buildOptions(maxHops, maxInflated int) []pdfpages.Option {
	var opts []pdfpages.Option
	if maxHops > 0 {
		opts = append(opts, pdfpages.WithMaxPrevHops(maxHops))
	}
	if maxInflated > 0 {
		opts = append(opts, pdfpages.WithMaxStreamSize(maxInflated))
	}
	return opts
}

func runFile(ctx context.Context, path string, opts []pdfpages.Option, async bool) (int, error) {
	n, err := countOne(ctx, path, opts, async)
	if err != nil {
		return classifyExit(err), err
	}
	fmt.Println(n)
	return exitOK, nil
}

// runDir walks dir for *.pdf files and counts each one concurrently under
// a bounded errgroup. A single file's failure is reported inline rather
// than aborting the walk; the command still exits non-zero if any file
// failed.
func runDir(ctx context.Context, dir string, opts []pdfpages.Option, async bool) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return exitIOFailure, err
	}

	const maxWorkers = 8
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	results := make([]string, len(paths))
	failed := make([]bool, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			n, err := countOne(gctx, path, opts, async)
			if err != nil {
				failed[i] = true
				results[i] = fmt.Sprintf("%s: error: %v", path, err)
				return nil
			}
			results[i] = fmt.Sprintf("%s: %d", path, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exitIOFailure, err
	}

	for _, line := range results {
		fmt.Println(line)
	}
	for _, f := range failed {
		if f {
			return exitIOFailure, nil
		}
	}
	return exitOK, nil
}

func countOne(ctx context.Context, path string, opts []pdfpages.Option, async bool) (int, error) {
	if !async {
		return pdfpages.Count(path, opts...)
	}
	result := <-pdfpages.CountAsync(ctx, path, opts...)
	return result.Pages, result.Err
}

func classifyExit(err error) int {
	if pdfpages.IsPageCountNotFound(err) {
		return exitNoCount
	}
	return exitIOFailure
}

func mustDevelopmentLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
