package video

import (
	"image"
	"io"
	"time"

	apperrors "go-content-moderator/internal/errors"
)

// Frame is one decoded frame due for detection. Index counts every decoded
// frame of the source, not just sampled ones.
type Frame struct {
	Index int
	Image image.Image
}

// FrameDecoder yields the frames of one video source in order. A decoder
// is single pass: it consumes the underlying stream once and cannot be
// restarted. Next returns io.EOF when the stream ends.
type FrameDecoder interface {
	FrameRate() float64
	Next() (image.Image, error)
	Close() error
}

// Sampler pulls frames from a decoder at a reduced rate and enforces the
// duration cap. Like its decoder it is finite and not restartable.
type Sampler struct {
	dec         FrameDecoder
	sourceRate  float64
	interval    int
	maxDuration float64
	nextIndex   int
	lastIndex   int
	done        bool
}

// NewSampler derives the sampling interval from the source and target
// frame rates: floor(source/target), minimum 1 so a source at or below the
// target rate is sampled in full.
func NewSampler(dec FrameDecoder, targetFrameRate float64, maxDuration time.Duration) *Sampler {
	sourceRate := dec.FrameRate()
	interval := int(sourceRate / targetFrameRate)
	if interval < 1 {
		interval = 1
	}
	return &Sampler{
		dec:         dec,
		sourceRate:  sourceRate,
		interval:    interval,
		maxDuration: maxDuration.Seconds(),
		lastIndex:   -1,
	}
}

// Interval exposes the sampling interval in source frames.
func (s *Sampler) Interval() int {
	return s.interval
}

// Next returns the next sampled frame. It returns io.EOF when the source
// ends or the duration cap is reached, and a VideoDecodeFailed error when
// the source cannot be read. Decoding stops at the first frame whose
// timestamp crosses the cap regardless of whether that frame was due for
// sampling; the crossing frame is excluded.
func (s *Sampler) Next() (Frame, error) {
	for {
		if s.done {
			return Frame{}, io.EOF
		}
		idx := s.nextIndex
		if float64(idx)/s.sourceRate > s.maxDuration {
			s.done = true
			return Frame{}, io.EOF
		}

		img, err := s.dec.Next()
		if err == io.EOF {
			s.done = true
			return Frame{}, io.EOF
		}
		if err != nil {
			s.done = true
			return Frame{}, apperrors.NewVideoDecodeError("failed to decode video frame", err)
		}

		s.nextIndex++
		s.lastIndex = idx
		if idx%s.interval == 0 {
			return Frame{Index: idx, Image: img}, nil
		}
	}
}

// Duration reports the playback time actually scanned, computed from the
// last decoded frame's index and the source frame rate. It reflects how
// far decoding progressed, not the container's nominal duration.
func (s *Sampler) Duration() float64 {
	if s.lastIndex < 0 {
		return 0
	}
	return float64(s.lastIndex) / s.sourceRate
}
