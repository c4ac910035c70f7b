package detector

import "context"

// RawDetection is one object instance as reported by a detection backend,
// before any policy filtering is applied.
type RawDetection struct {
	// CategoryID is the numeric label the model was trained on. Ids map to
	// names through the configured label table; unmapped ids survive as
	// unknown categories downstream.
	CategoryID int `json:"class_id"`
	// Confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Box is x1,y1,x2,y2 in source-image pixel coordinates.
	Box [4]float64 `json:"bbox"`
}

// Detector wraps an object-detection capability. Implementations must be
// safe for repeated, stateless invocation; failures surface as
// DetectionUnavailable and are never retried by the caller's core pipeline.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]RawDetection, error)
	Close() error
}
