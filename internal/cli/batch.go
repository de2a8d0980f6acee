package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	batchOutDir      string
	batchConcurrency int
	batchFormat      string
	batchFlags       settingsFlags
)

var batchCmd = &cobra.Command{
	Use:   "batch <files...>",
	Short: "Humanize several files concurrently",
	Long: `Humanize each file and write the result next to it as
<name>.humanized<ext>, or into --out-dir.

A failing file does not stop the others; the command fails if any file did.

Examples:
  humanizer batch notes/*.md
  humanizer batch a.txt b.txt --out-dir ./out --concurrency 2
  humanizer batch *.txt --format json --mode nlp_only`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutDir, "out-dir", "d", "", "directory for results (default: next to each file)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "parallel requests (default from config)")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "o", formatText, "summary format (text, json, yaml)")
	batchFlags.register(batchCmd)
}

// batchResult is the outcome for one file.
type batchResult struct {
	target string
	doc    document
	err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := validFormat(batchFormat); err != nil {
		return err
	}
	settings, err := batchFlags.settings()
	if err != nil {
		return err
	}

	limit := batchConcurrency
	if limit <= 0 {
		limit = cfg.Batch.Concurrency
	}

	ctx := cmd.Context()
	sess := session(ctx)
	if provider() != nil && !sess.Authenticated {
		return fmt.Errorf("%w: run 'humanizer login' first", orchestrator.ErrAuthRequired)
	}

	if batchOutDir != "" {
		if err := os.MkdirAll(batchOutDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	stderr := cmd.ErrOrStderr()
	interactive := !verbose && isTerminal(stderr)

	results := make([]batchResult, len(args))
	work := func(ctx context.Context, report func(path string, err error)) error {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, path := range args {
			g.Go(func() error {
				diag := io.Discard
				if !interactive {
					diag = stderr
				}
				results[i] = processFile(ctx, diag, path, settings, sess)
				report(path, results[i].err)
				// Only write failures abort the batch.
				if results[i].err != nil && results[i].target != "" {
					return results[i].err
				}
				return nil
			})
		}
		return g.Wait()
	}

	if interactive {
		err = runWithProgress(ctx, stderr, len(args), work)
	} else {
		err = work(ctx, func(string, error) {})
	}
	if err != nil {
		return err
	}

	failed, err := printBatchSummary(cmd.OutOrStdout(), args, results)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if verbose {
		printStats(stderr, collector.Snapshot())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// processFile humanizes path and writes the result file. Each file gets its
// own orchestrator so concurrent submissions do not supersede each other.
func processFile(ctx context.Context, diag io.Writer, path string, settings humanize.Settings, sess auth.Session) batchResult {
	text, err := readInput(nil, path, nil)
	if err != nil {
		return batchResult{err: err}
	}

	view := newTextView(diag)
	out := newOrchestrator(view).Submit(ctx, text, settings, sess)
	if out.Err != nil {
		return batchResult{err: submitError(out)}
	}

	doc := view.document(settings)
	doc.Source = path
	target := outputPath(path, batchOutDir)
	if err := os.WriteFile(target, []byte(doc.Humanized), 0644); err != nil {
		return batchResult{target: target, doc: doc, err: fmt.Errorf("write %s: %w", target, err)}
	}
	logger.Debug("wrote humanized file", "source", path, "target", target, "words", doc.Words)
	return batchResult{target: target, doc: doc}
}

// outputPath returns dir/<name>.humanized<ext>, using the source directory
// when dir is empty.
func outputPath(path, dir string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + ".humanized" + ext
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, name)
}

// printBatchSummary writes the per-file results and returns the failure count.
func printBatchSummary(w io.Writer, paths []string, results []batchResult) (int, error) {
	failed := 0
	var docs []document
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		docs = append(docs, r.doc)
	}

	if batchFormat != formatText {
		if docs == nil {
			docs = []document{}
		}
		return failed, writeStructured(w, batchFormat, docs)
	}

	theme := defaultTheme
	for i, r := range results {
		var line string
		if r.err != nil {
			line = theme.errorStyle().Render("✗ "+paths[i]) + ": " + r.err.Error()
		} else {
			line = theme.successStyle().Render("✓ "+paths[i]) + " → " + r.target
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
