package model

import (
	"time"
)

// BlockKind is the closed set of block shapes. The constraint library matches
// it exhaustively so a new kind surfaces everywhere legality is decided.
type BlockKind int

const (
	BlockSingle BlockKind = iota
	BlockPairedRegular
	BlockPairedSplit
	BlockTripleChain
)

// String returns a human-readable representation of the block kind.
func (k BlockKind) String() string {
	switch k {
	case BlockSingle:
		return "single"
	case BlockPairedRegular:
		return "paired-regular"
	case BlockPairedSplit:
		return "paired-split"
	case BlockTripleChain:
		return "triple-chain"
	default:
		return "unknown"
	}
}

// Block is an ordered group of one to three tours on a single driver-day.
// Blocks are derived from the forecast by the block builder and are never
// persisted independently.
type Block struct {
	Kind  BlockKind
	Day   int
	Tours []TourInstance
}

// Start returns the start of the first tour.
func (b Block) Start() time.Time { return b.Tours[0].Start }

// End returns the end of the last tour.
func (b Block) End() time.Time { return b.Tours[len(b.Tours)-1].End }

// Span is the elapsed time from first tour start to last tour end.
func (b Block) Span() time.Duration { return b.End().Sub(b.Start()) }

// WorkHours sums the tour durations in hours, excluding gaps.
func (b Block) WorkHours() float64 {
	var d time.Duration
	for _, t := range b.Tours {
		d += t.Duration()
	}
	return d.Hours()
}

// Gaps returns the idle durations between consecutive tours.
func (b Block) Gaps() []time.Duration {
	var gaps []time.Duration
	for i := 1; i < len(b.Tours); i++ {
		gaps = append(gaps, b.Tours[i].Start.Sub(b.Tours[i-1].End))
	}
	return gaps
}

// TourIDs lists the tour identifiers in order.
func (b Block) TourIDs() []string {
	ids := make([]string, len(b.Tours))
	for i, t := range b.Tours {
		ids[i] = t.ID
	}
	return ids
}
