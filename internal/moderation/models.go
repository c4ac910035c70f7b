package moderation

// Detection is one recognized object instance that survived policy
// filtering. All fields are immutable after construction.
type Detection struct {
	Category   string     `json:"class"`
	CategoryID int        `json:"class_id"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"bbox"`
}

// Verdict is the Decision Engine's output for one image or frame.
// Invariant: Forbidden implies at least one detection whose category is in
// the forbidden set.
type Verdict struct {
	Detections []Detection `json:"detections"`
	Forbidden  bool        `json:"has_forbidden_content"`
}

// FrameResult is a Verdict plus the video-temporal position it was taken
// at. FrameIndex counts every decoded frame, not just sampled ones.
type FrameResult struct {
	FrameIndex int     `json:"frame_number"`
	Timestamp  float64 `json:"timestamp"`
	Verdict
}

// VideoResult aggregates the sampled frames of one video.
// ForbiddenFrames is always a stable subsequence of ProcessedFrames, and
// Duration never exceeds the configured video duration cap.
type VideoResult struct {
	ProcessedFrames []FrameResult `json:"frame_results"`
	ForbiddenFrames []FrameResult `json:"forbidden_frames"`
	Duration        float64       `json:"video_duration"`
}

// HasForbiddenContent reports whether any sampled frame was forbidden.
func (r *VideoResult) HasForbiddenContent() bool {
	return len(r.ForbiddenFrames) > 0
}

// ActionKind is the terminal state of the Action Dispatcher for one
// content item.
type ActionKind string

const (
	ActionQuarantined ActionKind = "quarantined"
	ActionVerified    ActionKind = "verified"
	ActionError       ActionKind = "error"
)

// Action records the outcome of dispatching the policy decision for one
// content item. Err is set only when Kind is ActionError. Actions are not
// persisted by the pipeline.
type Action struct {
	Kind       ActionKind  `json:"action"`
	Detections []Detection `json:"detections"`
	Err        error       `json:"-"`
}
