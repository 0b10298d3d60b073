package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/pagetidy/internal/util"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type MPBProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(out io.Writer) *MPBProgressManager {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &MPBProgressManager{p: p}
}

func (pm *MPBProgressManager) Close() {
	pm.p.Wait()
}

func (pm *MPBProgressManager) Register(prefix string, total int) *ProgressHandle {
	h := &ProgressHandle{prefix: prefix}
	h.initBar(pm.p, int64(total))
	return h
}

// ProgressHandle tracks one batch. A nil handle ignores every call.
type ProgressHandle struct {
	prefix string
	bar    *mpb.Bar

	total   int64
	bytes   atomic.Int64
	removed atomic.Int64

	start   time.Time
	elapsed atomic.Int64
	final   atomic.Bool
}

func (h *ProgressHandle) initBar(p *mpb.Progress, total int64) {
	h.start = time.Now()
	h.total = total

	h.bar = p.New(
		total,
		mpb.BarStyle().Rbound("]"),

		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),

		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.CountersNoUnit(" | %d/%d pages", decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				return fmt.Sprintf(" | %d removed", h.removed.Load())
			}),
			decor.Any(func(_ decor.Statistics) string {
				return " | " + util.Human(h.bytes.Load())
			}),
			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
		),
	)
}

// Advance records one finished page.
func (h *ProgressHandle) Advance(bytes int64, removed bool) {
	if h == nil || h.final.Load() {
		return
	}

	h.bytes.Add(bytes)
	if removed {
		h.removed.Add(1)
	}
	h.bar.Increment()
}

func (h *ProgressHandle) MarkDone() {
	if h == nil || h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	h.bar.SetCurrent(h.total)
	h.bar.SetTotal(h.total, true)
}
