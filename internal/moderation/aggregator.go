package moderation

// Aggregator combines per-frame verdicts into a content-level VideoResult.
// Frames must be added in ascending frame-index order, which is what the
// sampler produces; the aggregator preserves that order and never reorders
// or deduplicates.
type Aggregator struct {
	sourceFrameRate float64
	processed       []FrameResult
	forbidden       []FrameResult
	lastIndex       int
}

func NewAggregator(sourceFrameRate float64) *Aggregator {
	return &Aggregator{
		sourceFrameRate: sourceFrameRate,
		processed:       []FrameResult{},
		forbidden:       []FrameResult{},
		lastIndex:       -1,
	}
}

// Add records the verdict for one sampled frame.
func (a *Aggregator) Add(frameIndex int, verdict Verdict) {
	fr := FrameResult{
		FrameIndex: frameIndex,
		Timestamp:  float64(frameIndex) / a.sourceFrameRate,
		Verdict:    verdict,
	}
	a.processed = append(a.processed, fr)
	if verdict.Forbidden {
		a.forbidden = append(a.forbidden, fr)
	}
	if frameIndex > a.lastIndex {
		a.lastIndex = frameIndex
	}
}

// Result produces the aggregate. duration is how far decoding actually
// progressed in seconds, which may be less than the container's nominal
// duration when the duration cap cut decoding short.
func (a *Aggregator) Result(duration float64) VideoResult {
	return VideoResult{
		ProcessedFrames: a.processed,
		ForbiddenFrames: a.forbidden,
		Duration:        duration,
	}
}
