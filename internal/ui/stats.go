package ui

import (
	"sync/atomic"

	"github.com/brogergvhs/pagetidy/internal/dom"
)

type Stats struct {
	TotalPages atomic.Int64
	Primary    atomic.Int64
	Fallback   atomic.Int64
	Failed     atomic.Int64
	TotalBytes atomic.Int64
}

func (s *Stats) Record(o dom.Outcome, bytes int64) {
	s.TotalPages.Add(1)
	s.TotalBytes.Add(bytes)

	switch o {
	case dom.MatchPrimary:
		s.Primary.Add(1)
	case dom.MatchFallback:
		s.Fallback.Add(1)
	}
}

func (s *Stats) Removed() int64 {
	return s.Primary.Load() + s.Fallback.Load()
}
