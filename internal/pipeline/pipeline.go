package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brogergvhs/pagetidy/internal/dom"
	"github.com/brogergvhs/pagetidy/internal/fetch"
	"github.com/brogergvhs/pagetidy/internal/sources"
	"github.com/brogergvhs/pagetidy/internal/ui"
	"github.com/brogergvhs/pagetidy/internal/util"
)

type Options struct {
	OutputDir  string
	InPlace    bool
	Workers    int
	SkipBroken bool
}

type Result struct {
	Source  sources.Source
	Output  string // empty when nothing was written
	Outcome dom.Outcome
	Changed bool // removal or transform
	Bytes   int64
	Err     error
}

type Runner struct {
	loader  *fetch.Loader
	cleaner *dom.Cleaner
	log     *ui.Logger
	opts    Options
}

func New(loader *fetch.Loader, cleaner *dom.Cleaner, log *ui.Logger, opts Options) *Runner {
	if log == nil {
		log = ui.Nop()
	}

	return &Runner{
		loader:  loader,
		cleaner: cleaner,
		log:     log,
		opts:    opts,
	}
}

// Run cleans srcs with a bounded worker pool. Results come back in input
// order. Unless SkipBroken is set, any failed page makes Run return an
// error after every page has been attempted.
func (r *Runner) Run(
	ctx context.Context,
	srcs []sources.Source,
	ph *ui.ProgressHandle,
	stats *ui.Stats,
) ([]Result, error) {
	if stats == nil {
		stats = &ui.Stats{}
	}

	results := make([]Result, len(srcs))
	if len(srcs) == 0 {
		return results, nil
	}

	if !r.opts.InPlace || hasRemote(srcs) {
		if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create output folder: %w", err)
		}
	}

	workers := max(1, r.opts.Workers)
	workers = min(workers, len(srcs))

	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			res := r.process(ctx, srcs[i])
			results[i] = res

			if res.Err != nil {
				stats.Failed.Add(1)
				r.log.Errorf("%s: %v", srcs[i].Ref, res.Err)
			} else {
				stats.Record(res.Outcome, res.Bytes)
				r.log.Debugf("%s: match=%s output=%q", srcs[i].Ref, res.Outcome, res.Output)
			}
			ph.Advance(res.Bytes, res.Outcome.Removed())
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}

	stop := func() ([]Result, error) {
		close(jobs)
		wg.Wait()
		ph.MarkDone()
		return results, ctx.Err()
	}

	for i := range srcs {
		if ctx.Err() != nil {
			return stop()
		}

		select {
		case <-ctx.Done():
			return stop()
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()
	ph.MarkDone()

	if failed := stats.Failed.Load(); failed > 0 && !r.opts.SkipBroken {
		return results, fmt.Errorf("failed %d/%d pages (use --skip-broken to continue)", failed, len(srcs))
	}

	return results, nil
}

func (r *Runner) process(ctx context.Context, src sources.Source) Result {
	res := Result{Source: src}

	data, err := r.loader.Load(ctx, src)
	if err != nil {
		res.Err = err
		return res
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	res.Outcome, res.Changed, err = r.cleaner.Tidy(data, &buf)
	if err != nil {
		res.Err = err
		return res
	}
	res.Bytes = int64(buf.Len())

	inPlace := r.opts.InPlace && !src.IsRemote()
	if inPlace && !res.Changed {
		return res
	}

	out := filepath.Join(r.opts.OutputDir, src.Name)
	if inPlace {
		out = src.Ref
	}

	if err := util.WriteFileAtomic(out, buf.Bytes(), 0644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", out, err)
		return res
	}
	res.Output = out

	return res
}

// ArchiveEntries lists the files written by a run, in input order, each
// named by its unique source name.
func ArchiveEntries(results []Result) []util.ArchiveEntry {
	var out []util.ArchiveEntry
	for _, r := range results {
		if r.Err == nil && r.Output != "" {
			out = append(out, util.ArchiveEntry{Name: r.Source.Name, Path: r.Output})
		}
	}

	return out
}

func hasRemote(srcs []sources.Source) bool {
	for _, s := range srcs {
		if s.IsRemote() {
			return true
		}
	}

	return false
}
