package video

import (
	"errors"
	"image"
	"io"
	"testing"
	"time"

	apperrors "go-content-moderator/internal/errors"
)

// stubDecoder serves a fixed number of blank frames at a fixed rate, with an
// optional error injected at a given frame index.
type stubDecoder struct {
	frameRate  float64
	frameCount int
	failAt     int
	next       int
	closed     bool
}

func newStubDecoder(frameRate float64, frameCount int) *stubDecoder {
	return &stubDecoder{frameRate: frameRate, frameCount: frameCount, failAt: -1}
}

func (d *stubDecoder) FrameRate() float64 { return d.frameRate }

func (d *stubDecoder) Next() (image.Image, error) {
	if d.failAt >= 0 && d.next == d.failAt {
		return nil, errors.New("truncated stream")
	}
	if d.next >= d.frameCount {
		return nil, io.EOF
	}
	d.next++
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (d *stubDecoder) Close() error {
	d.closed = true
	return nil
}

func drain(t *testing.T, s *Sampler) []int {
	t.Helper()
	var indices []int
	for {
		frame, err := s.Next()
		if err == io.EOF {
			return indices
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		indices = append(indices, frame.Index)
	}
}

func TestSampler_IntervalFromRates(t *testing.T) {
	tests := []struct {
		name       string
		sourceRate float64
		targetRate float64
		interval   int
	}{
		{"30fps down to 1fps", 30, 1, 30},
		{"24fps down to 1fps", 24, 1, 24},
		{"source below target", 0.5, 1, 1},
		{"source equals target", 1, 1, 1},
		{"fractional ratio floors", 25, 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(newStubDecoder(tt.sourceRate, 0), tt.targetRate, 5*time.Minute)
			if s.Interval() != tt.interval {
				t.Errorf("Expected interval %d, got %d", tt.interval, s.Interval())
			}
		})
	}
}

func TestSampler_SamplesEveryIntervalFrames(t *testing.T) {
	// 120 frames at 24fps sampled at 1fps: indices 0, 24, 48, 72, 96.
	s := NewSampler(newStubDecoder(24, 120), 1, 5*time.Minute)

	indices := drain(t, s)

	expected := []int{0, 24, 48, 72, 96}
	if len(indices) != len(expected) {
		t.Fatalf("Expected %d sampled frames, got %d", len(expected), len(indices))
	}
	for i := range expected {
		if indices[i] != expected[i] {
			t.Errorf("Sample %d: expected index %d, got %d", i, expected[i], indices[i])
		}
	}
	if s.Duration() != float64(119)/24 {
		t.Errorf("Expected duration %f, got %f", float64(119)/24, s.Duration())
	}
}

func TestSampler_DurationCapExcludesCrossingFrame(t *testing.T) {
	// 10fps source capped at 5s: frame 50 sits exactly at 5.0s and is the
	// last decoded frame; frame 51 crosses the cap and is excluded.
	s := NewSampler(newStubDecoder(10, 1000), 1, 5*time.Second)

	indices := drain(t, s)

	if last := indices[len(indices)-1]; last != 50 {
		t.Errorf("Expected last sampled index 50, got %d", last)
	}
	if s.Duration() != 5.0 {
		t.Errorf("Expected duration 5.0, got %f", s.Duration())
	}
	if s.Duration() > 5.0 {
		t.Error("Duration must never exceed the cap")
	}
}

func TestSampler_SourceEndsBeforeCap(t *testing.T) {
	s := NewSampler(newStubDecoder(30, 45), 1, 5*time.Minute)

	indices := drain(t, s)

	expected := []int{0, 30}
	if len(indices) != len(expected) {
		t.Fatalf("Expected %d sampled frames, got %d", len(expected), len(indices))
	}
	if s.Duration() != float64(44)/30 {
		t.Errorf("Expected duration %f, got %f", float64(44)/30, s.Duration())
	}
}

func TestSampler_DecodeErrorSurfacesAsVideoDecodeFailed(t *testing.T) {
	dec := newStubDecoder(30, 100)
	dec.failAt = 35
	s := NewSampler(dec, 1, 5*time.Minute)

	if _, err := s.Next(); err != nil {
		t.Fatalf("Expected frame 0 before the failure, got error: %v", err)
	}

	_, err := s.Next()
	if err == nil {
		t.Fatal("Expected a decode error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeVideoDecodeFailed) {
		t.Errorf("Expected VideoDecodeFailed error, got %v", err)
	}

	// The sampler is exhausted after an error.
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after failure, got %v", err)
	}
}

func TestSampler_EmptySource(t *testing.T) {
	s := NewSampler(newStubDecoder(30, 0), 1, 5*time.Minute)

	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("Expected io.EOF for empty source, got %v", err)
	}
	if s.Duration() != 0 {
		t.Errorf("Expected zero duration, got %f", s.Duration())
	}
}
