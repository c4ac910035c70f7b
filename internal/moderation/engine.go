package moderation

import (
	"fmt"
	"math"

	"go-content-moderator/internal/detector"
	"go-content-moderator/internal/logger"

	"github.com/sirupsen/logrus"
)

// Policy is the configured moderation policy the engine decides against.
type Policy struct {
	// ConfidenceThreshold is inclusive: a detection exactly at the
	// threshold is retained.
	ConfidenceThreshold float64
	// ForbiddenCategories holds the category ids that violate policy.
	ForbiddenCategories map[int]bool
	// Labels maps category ids to names. Ids absent from the table are
	// labeled unknown_<id> and never count as forbidden.
	Labels map[int]string
}

// Engine converts raw detections for one image or frame into a Verdict.
// Decide is a pure function of its input and the policy: no I/O, no
// side effects beyond debug logging of dropped detections.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Decide filters raw detections against the confidence threshold and flags
// the result when a retained detection's category is forbidden. Malformed
// detections are dropped, never fatal.
func (e *Engine) Decide(raw []detector.RawDetection) Verdict {
	verdict := Verdict{Detections: []Detection{}}

	for _, d := range raw {
		if reason := validateDetection(d); reason != "" {
			logger.WithFields(logrus.Fields{
				"class_id": d.CategoryID,
				"reason":   reason,
			}).Debug("Dropping malformed detection")
			continue
		}
		if d.Confidence < e.policy.ConfidenceThreshold {
			continue
		}

		name, known := e.policy.Labels[d.CategoryID]
		if !known {
			name = fmt.Sprintf("unknown_%d", d.CategoryID)
		}

		verdict.Detections = append(verdict.Detections, Detection{
			Category:   name,
			CategoryID: d.CategoryID,
			Confidence: d.Confidence,
			Box:        d.Box,
		})

		// Unknown categories never contribute to the forbidden flag.
		if known && e.policy.ForbiddenCategories[d.CategoryID] {
			verdict.Forbidden = true
		}
	}

	return verdict
}

// validateDetection returns a non-empty reason when the detection is
// malformed and must be excluded from output.
func validateDetection(d detector.RawDetection) string {
	if math.IsNaN(d.Confidence) || math.IsInf(d.Confidence, 0) {
		return "confidence is not a number"
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return "confidence out of [0,1]"
	}
	for _, v := range d.Box {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "bounding box coordinate is not a number"
		}
	}
	if d.Box[2] < d.Box[0] || d.Box[3] < d.Box[1] {
		return "bounding box is inverted"
	}
	return ""
}
