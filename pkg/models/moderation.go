package models

import "go-content-moderator/internal/moderation"

// ImageModerationResponse is the synchronous surface's Verdict-shaped body.
type ImageModerationResponse struct {
	Success             bool                   `json:"success"`
	Filename            string                 `json:"filename,omitempty"`
	HasForbiddenContent bool                   `json:"has_forbidden_content"`
	Detections          []moderation.Detection `json:"detections"`
	TotalDetections     int                    `json:"total_detections"`
}

// VideoModerationResponse is the synchronous surface's VideoResult-shaped body.
type VideoModerationResponse struct {
	Success              bool                     `json:"success"`
	Filename             string                   `json:"filename,omitempty"`
	VideoDuration        float64                  `json:"video_duration"`
	TotalFramesProcessed int                      `json:"total_frames_processed"`
	ForbiddenFrames      []moderation.FrameResult `json:"forbidden_frames"`
	HasForbiddenContent  bool                     `json:"has_forbidden_content"`
}

// NewImageModerationResponse shapes a verdict for the wire.
func NewImageModerationResponse(filename string, verdict moderation.Verdict) *ImageModerationResponse {
	return &ImageModerationResponse{
		Success:             true,
		Filename:            filename,
		HasForbiddenContent: verdict.Forbidden,
		Detections:          verdict.Detections,
		TotalDetections:     len(verdict.Detections),
	}
}

// NewVideoModerationResponse shapes a video result for the wire.
func NewVideoModerationResponse(filename string, result moderation.VideoResult) *VideoModerationResponse {
	return &VideoModerationResponse{
		Success:              true,
		Filename:             filename,
		VideoDuration:        result.Duration,
		TotalFramesProcessed: len(result.ProcessedFrames),
		ForbiddenFrames:      result.ForbiddenFrames,
		HasForbiddenContent:  result.HasForbiddenContent(),
	}
}
